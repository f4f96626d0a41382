// Package middleware provides authentication, logging, metrics and tracing middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token claims expected on every bearer token.
const (
	TokenIssuer   = "quill-api"
	TokenAudience = "quill-client"
)

// Fiber locals written by the auth middleware.
const (
	LocalUserID      = "userID"
	LocalTokenID     = "tokenID"
	LocalTokenExpiry = "tokenExpiry"
)

// RevocationChecker reports whether a token id has been revoked (logout).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret      string
	Revocations RevocationChecker
}

// TokenClaims is the verified subset of a bearer token.
type TokenClaims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

var errMissingToken = errors.New("missing bearer token")

// GenerateToken signs an HS256 access token for the user. The returned
// claims carry the token id used for revocation.
func GenerateToken(secret string, userID uint, ttl time.Duration, now time.Time) (string, *TokenClaims, error) {
	jti := uuid.NewString()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, &TokenClaims{UserID: userID, ID: jti, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies an HS256 token and extracts its claims.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid user ID in token")
	}

	out := &TokenClaims{UserID: uint(userID)}
	if jti, ok := claims["jti"].(string); ok {
		out.ID = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// authenticate resolves the bearer token into locals. It returns
// errMissingToken when no Authorization header is present.
func authenticate(c *fiber.Ctx, cfg AuthConfig) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := ParseToken(cfg.Secret, tokenString)
	if err != nil {
		return err
	}

	if claims.ID != "" && cfg.Revocations != nil {
		revoked, rerr := cfg.Revocations.IsRevoked(c.UserContext(), claims.ID)
		if rerr != nil {
			Logger.WarnContext(c.UserContext(), "token revocation lookup failed", "error", rerr)
		} else if revoked {
			return errors.New("token has been revoked")
		}
	}

	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalTokenID, claims.ID)
	c.Locals(LocalTokenExpiry, claims.ExpiresAt)
	ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
	c.SetUserContext(ctx)
	return nil
}

// OptionalAuth resolves the current user when a bearer token is sent.
// Requests without one pass through anonymously; a bad token is rejected.
func OptionalAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := authenticate(c, cfg)
		switch {
		case err == nil, errors.Is(err, errMissingToken):
			return c.Next()
		default:
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError(capitalize(err.Error())))
		}
	}
}

// PublicAuth resolves the current user for public reads. A token that cannot
// be used is ignored and the request continues anonymously.
func PublicAuth(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, cfg); err != nil && !errors.Is(err, errMissingToken) {
			Logger.DebugContext(c.UserContext(), "ignoring unusable token on public route", "error", err)
		}
		return c.Next()
	}
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, cfg); err != nil {
			msg := capitalize(err.Error())
			if errors.Is(err, errMissingToken) {
				msg = "Authorization required"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError(msg))
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
