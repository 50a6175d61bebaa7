package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/pngs2apng/pkg/apng"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeTooLarge(c *echo.Context, limit int64) error {
	return writeError(c, http.StatusRequestEntityTooLarge, "request_too_large",
		"request body exceeds "+formatBytes(limit))
}

// isImageError reports whether err was caused by malformed frame input rather
// than by the server.
func isImageError(err error) bool {
	return errors.Is(err, apng.ErrShortHeader) ||
		errors.Is(err, apng.ErrTruncatedChunk) ||
		errors.Is(err, apng.ErrNoImageData) ||
		errors.Is(err, apng.ErrChunkTooLarge) ||
		errors.Is(err, apng.ErrNotPNG)
}
