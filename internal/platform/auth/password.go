package auth

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Hasher creates argon2id hashes. Verify also understands bcrypt hashes, which
// is what cmd/hashpw produces for the dashboard password.
type Hasher struct {
	params *argon2id.Params
}

func NewHasher() *Hasher { return &Hasher{params: argon2id.DefaultParams} }

func (h *Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *Hasher) Verify(password, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		ok, err := argon2id.ComparePasswordAndHash(password, hash)
		return err == nil && ok
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	default:
		return false
	}
}

// BcryptHash is used by cmd/hashpw.
func BcryptHash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
