package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mealshare_echo/internal/shopping"
)

// ErrorHandler is the echo HTTPErrorHandler. Domain errors are mapped to
// status codes and every error is answered as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := StatusFor(err)

	// Log the error
	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, map[string]string{"error": message})
	}
	if writeErr != nil {
		c.Logger().Error(writeErr)
	}
}

// StatusFor maps err to an HTTP status and the message sent to the client.
func StatusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, shopping.ErrAuthenticationRequired):
		return http.StatusUnauthorized, shopping.ErrAuthenticationRequired.Error()
	case errors.Is(err, shopping.ErrPermissionDenied):
		return http.StatusForbidden, shopping.ErrPermissionDenied.Error()
	case errors.Is(err, shopping.ErrPlanNotFound):
		return http.StatusNotFound, shopping.ErrPlanNotFound.Error()
	case errors.Is(err, shopping.ErrInvalidMentionKey):
		return http.StatusBadRequest, shopping.ErrInvalidMentionKey.Error()
	case errors.Is(err, shopping.ErrPersistence):
		return http.StatusServiceUnavailable, "storage temporarily unavailable, retry later"
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok && msg != "" {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again later."
}
