package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleClient = "client"
	RoleAdmin  = "admin"

	audience = "trainer-bookings"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims: client tokens carry Sub and Email, admin tokens carry Username.
type Claims struct {
	Sub      int64  `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) NewClientToken(userID int64, email string) (string, error) {
	return i.sign(Claims{Sub: userID, Email: email, Role: RoleClient})
}

func (i *Issuer) NewAdminToken(username string) (string, error) {
	return i.sign(Claims{Username: username, Role: RoleAdmin})
}

func (i *Issuer) sign(claims Claims) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		Audience:  []string{audience},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
