package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/config"
)

type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity prefers the explicit userId claim and falls back to sub.
func (c *Claims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Verifier checks access tokens signed with either a shared HMAC secret or
// an RSA key pair.
type Verifier struct {
	method jwt.SigningMethod
	secret []byte
	pub    *rsa.PublicKey
}

func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	switch strings.ToUpper(cfg.Algorithm) {
	case "", "HS256":
		if cfg.HSSecret == "" {
			return nil, errors.New("jwt: hs256 secret is empty")
		}
		return &Verifier{method: jwt.SigningMethodHS256, secret: []byte(cfg.HSSecret)}, nil
	case "RS256":
		b, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("jwt: read public key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, fmt.Errorf("jwt: parse public key: %w", err)
		}
		return &Verifier{method: jwt.SigningMethodRS256, pub: pub}, nil
	}
	return nil, fmt.Errorf("jwt: unsupported algorithm %q", cfg.Algorithm)
}

func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		if v.pub != nil {
			return v.pub, nil
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Identity() == "" {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	return claims, nil
}

// IssueHS256 signs a short lived token. Used by tests and the taskwatch
// CLI against development servers.
func IssueHS256(secret, userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header empty")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
