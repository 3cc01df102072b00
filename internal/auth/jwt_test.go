package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/config"
)

const secret = "test-secret"

func TestVerifier_HS256(t *testing.T) {
	v, err := NewVerifier(config.JWTConfig{Algorithm: "HS256", HSSecret: secret})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		tok, err := IssueHS256(secret, "u1", "Ann", time.Minute)
		require.NoError(t, err)
		claims, err := v.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.Identity())
		assert.Equal(t, "Ann", claims.Name)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := IssueHS256("other", "u1", "Ann", time.Minute)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := IssueHS256(secret, "u1", "Ann", -time.Minute)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("no identity", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := NewVerifier(config.JWTConfig{Algorithm: "RS256", PublicKeyPath: path})
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u9", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString(key)
	require.NoError(t, err)

	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.Identity())

	// an HS256 token must not pass an RS256 verifier
	hs, err := IssueHS256(secret, "u1", "Ann", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(hs)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseBearerToken(t *testing.T) {
	tok, err := ParseBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "abc", "Basic abc", "Bearer "} {
		_, err := ParseBearerToken(h)
		assert.Error(t, err, h)
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(config.JWTConfig{HSSecret: secret})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperr.HTTPStatus(err)).SendString(err.Error())
		},
	})
	app.Get("/me", Middleware(v), func(c *fiber.Ctx) error {
		a := ActorFrom(c)
		return c.SendString(a.ID + "/" + a.Name)
	})

	tok, err := IssueHS256(secret, "u1", "Ann", time.Minute)
	require.NoError(t, err)

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "u1/Ann", string(body))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Cookie", "token="+tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})
}
