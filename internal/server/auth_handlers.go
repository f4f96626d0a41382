package server

import (
	"errors"
	"time"

	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultTokenTTL = 7 * 24 * time.Hour

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles user registration
// @Summary Register a new user
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return s.fail(c, "auth.signup", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.fail(c, "auth.signup", models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "user registered", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: token, User: user})
}

// Login handles user authentication
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.fail(c, "auth.login", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.fail(c, "auth.login", models.NewInternalError(err))
	}

	return c.JSON(authResponse{Token: token, User: user})
}

// Logout revokes the bearer token until it would have expired.
// @Summary Log out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(middleware.LocalTokenID).(string)
	expiresAt, _ := c.Locals(middleware.LocalTokenExpiry).(time.Time)

	if s.revocations == nil {
		middleware.Logger.WarnContext(c.UserContext(), "logout without revocation store; token stays valid until expiry")
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := s.revocations.Revoke(c.UserContext(), jti, time.Until(expiresAt)); err != nil {
		return s.fail(c, "auth.logout", models.NewInternalError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyProfile returns the authenticated user.
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Authorization required"))
	}

	user, err := s.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			// The account behind a still-valid token is gone.
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("User no longer exists"))
		}
		return s.fail(c, "users.me", err)
	}
	return c.JSON(user)
}

// generateToken creates a signed access token for the given user ID.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}
	ttl := time.Duration(s.config.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, _, err := middleware.GenerateToken(s.config.JWTSecret, userID, ttl, time.Now())
	return token, err
}
