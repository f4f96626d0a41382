package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func signedToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func validClaims(userID uint) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": "jti-1",
	}
}

func newAuthApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/test", handler, func(c *fiber.Ctx) error {
		id, ok := CurrentUserID(c)
		return c.JSON(fiber.Map{"userID": id, "authenticated": ok})
	})
	return app
}

type authBody struct {
	UserID        uint `json:"userID"`
	Authenticated bool `json:"authenticated"`
}

func doAuthRequest(t *testing.T, app *fiber.App, header string) (int, authBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body authBody
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestOptionalAuth(t *testing.T) {
	app := newAuthApp(OptionalAuth(AuthConfig{
		Secret:      testSecret,
		Revocations: stubRevocations{revoked: map[string]bool{"revoked-jti": true}},
	}))

	expired := validClaims(123)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAudience := validClaims(123)
	wrongAudience["aud"] = "someone-else"

	revoked := validClaims(123)
	revoked["jti"] = "revoked-jti"

	zeroUser := validClaims(0)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + signedToken(t, validClaims(123), jwt.SigningMethodHS256), http.StatusOK, 123},
		{"Anonymous", "", http.StatusOK, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + signedToken(t, expired, jwt.SigningMethodHS256), http.StatusUnauthorized, 0},
		{"Wrong Audience", "Bearer " + signedToken(t, wrongAudience, jwt.SigningMethodHS256), http.StatusUnauthorized, 0},
		{"Wrong Algorithm", "Bearer " + signedToken(t, validClaims(123), jwt.SigningMethodHS512), http.StatusUnauthorized, 0},
		{"Revoked Token", "Bearer " + signedToken(t, revoked, jwt.SigningMethodHS256), http.StatusUnauthorized, 0},
		{"Zero Subject", "Bearer " + signedToken(t, zeroUser, jwt.SigningMethodHS256), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doAuthRequest(t, app, tt.authHeader)
			assert.Equal(t, tt.expectedStatus, status)
			if status == http.StatusOK {
				assert.Equal(t, tt.expectedUserID, body.UserID)
				assert.Equal(t, tt.expectedUserID != 0, body.Authenticated)
			}
		})
	}
}

func TestPublicAuth(t *testing.T) {
	app := newAuthApp(PublicAuth(AuthConfig{
		Secret:      testSecret,
		Revocations: stubRevocations{revoked: map[string]bool{"revoked-jti": true}},
	}))

	expired := validClaims(123)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	revoked := validClaims(123)
	revoked["jti"] = "revoked-jti"

	tests := []struct {
		name           string
		authHeader     string
		expectedUserID uint
	}{
		{"Valid Token", "Bearer " + signedToken(t, validClaims(123), jwt.SigningMethodHS256), 123},
		{"Anonymous", "", 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", 0},
		{"Malformed Token", "Bearer malformed.token.here", 0},
		{"Expired Token", "Bearer " + signedToken(t, expired, jwt.SigningMethodHS256), 0},
		{"Revoked Token", "Bearer " + signedToken(t, revoked, jwt.SigningMethodHS256), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doAuthRequest(t, app, tt.authHeader)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.expectedUserID, body.UserID)
			assert.Equal(t, tt.expectedUserID != 0, body.Authenticated)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	app := newAuthApp(AuthRequired(AuthConfig{Secret: testSecret}))

	status, _ := doAuthRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := doAuthRequest(t, app, "Bearer "+signedToken(t, validClaims(9), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint(9), body.UserID)
}

func TestAuth_RevocationLookupFailureAllowsToken(t *testing.T) {
	app := newAuthApp(AuthRequired(AuthConfig{
		Secret:      testSecret,
		Revocations: stubRevocations{err: errors.New("redis down")},
	}))

	status, body := doAuthRequest(t, app, "Bearer "+signedToken(t, validClaims(5), jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint(5), body.UserID)
}

func TestGenerateToken_RoundTrip(t *testing.T) {
	now := time.Now()
	token, issued, err := GenerateToken(testSecret, 42, time.Hour, now)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())

	_, err = ParseToken("another-secret-another-secret-another-secret", token)
	assert.Error(t, err)
}
