package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"success": false, "message": "...", "error": "<class>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (router 404, middleware 401, ...).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message), Error: classForStatus(he.Code)}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Message: validationMessage(err), Error: "ValidationError"}
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, errorResponse{Message: "user not found", Error: "NotFoundError"}
	case errors.Is(err, domain.ErrNoLocation):
		return http.StatusNotFound, errorResponse{Message: "no location found for user", Error: "NotFoundError"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: "access forbidden", Error: "AuthorizationError"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Message: "invalid credentials", Error: "AuthenticationError"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Message: "user already exists", Error: "ConflictError"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "internal server error", Error: "PersistenceError"}
}

// validationMessage strips the sentinel prefix so clients see only the detail.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}

func classForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "ValidationError"
	case http.StatusUnauthorized:
		return "AuthenticationError"
	case http.StatusForbidden:
		return "AuthorizationError"
	case http.StatusNotFound:
		return "NotFoundError"
	default:
		return ""
	}
}
