package utils

import "strings"

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}

	// Very basic email validation - contains @ and domain
	local, domain, ok := strings.Cut(normalized, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".")
}
