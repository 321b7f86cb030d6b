// Package auth provides password hashing and bearer token handling for the
// contacts service. The concrete algorithms (bcrypt, HS256 JWT) are hidden
// behind the Provider interface so that handlers never depend on them.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned for every token that does not verify, no matter
// whether the signature, the expiry or the subject is at fault. Callers must
// not be able to tell these cases apart.
var ErrInvalidToken = errors.New("invalid token")

// Provider is the capability needed by the HTTP handlers: hash and verify
// passwords, issue and verify bearer tokens.
type Provider interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password string, hash string) bool
	IssueToken(userID int64) (string, error)
	VerifyToken(token string) (int64, error)
}

// Bearer implements Provider with bcrypt password hashes and signed,
// time-limited HS256 JSON web tokens whose subject is the user id.
type Bearer struct {
	secret []byte
	ttl    time.Duration
}

// New creates a Bearer provider signing with the given secret. Tokens expire
// ttl after issuance.
func New(secret string, ttl time.Duration) *Bearer {
	return &Bearer{secret: []byte(secret), ttl: ttl}
}

// HashPassword derives a salted bcrypt hash from the plaintext password.
func (b *Bearer) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func (b *Bearer) VerifyPassword(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken creates a signed token with the user id as subject and an expiry
// of now plus the configured lifetime.
func (b *Bearer) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.secret)
}

// VerifyToken checks signature and expiry and returns the user id encoded in
// the subject. Any failure yields ErrInvalidToken.
func (b *Bearer) VerifyToken(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
