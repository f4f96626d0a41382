package server

import (
	"errors"
	"strings"

	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePayload decodes the request body as a JSON object. An empty body is an
// empty object; anything that is not an object is rejected.
func parsePayload(c *fiber.Ctx) (map[string]any, error) {
	if len(c.Body()) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := c.App().Config().JSONDecoder(c.Body(), &payload); err != nil || payload == nil {
		return nil, models.NewValidationError("Request body must be a JSON object")
	}
	return payload, nil
}

// currentActor returns the authenticated user, or nil for anonymous requests.
// A token whose account has since been deleted resolves to no actor.
func (s *Server) currentActor(c *fiber.Ctx) (*models.User, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(c.UserContext(), id)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// fail writes err with its taxonomy status and logs internal failures.
func (s *Server) fail(c *fiber.Ctx, operation string, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"operation", operation, "error", err)
	}
	if strings.HasPrefix(operation, "post.") {
		middleware.RecordPostOperation(strings.TrimPrefix(operation, "post."), status)
	}
	return models.RespondWithError(c, status, err)
}
