package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/trainer-bookings/internal/http/response"
	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequireRole rejects requests without a valid bearer token for role.
func RequireRole(parser TokenParser, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				response.Unauthorized(w, "No token")
				return
			}
			claims, err := parser.Parse(raw)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
				return
			}
			if claims.Role != role {
				response.Forbidden(w, "Forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalClient attaches client claims when a valid client token is present
// and lets every other request through anonymously.
func OptionalClient(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearer(r); ok {
				claims, err := parser.Parse(raw)
				if err == nil && claims.Role == auth.RoleClient {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v, _ := r.Context().Value(CtxClaims).(*auth.Claims)
	return v
}

func withClaims(ctx context.Context, c *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxClaims, c)
	if c.Role == auth.RoleClient {
		ctx = context.WithValue(ctx, logger.UserIDKey, c.Sub)
	}
	return ctx
}

func bearer(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}
