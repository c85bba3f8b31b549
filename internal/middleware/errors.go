package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfwise/bookstore/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateResource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err as {"message"}. Errors without a kind are
// logged and reported with a generic message.
func RespondWithAppError(c *gin.Context, log *slog.Logger, err error) {
	status := StatusFor(err)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("unhandled error", "path", c.FullPath(), "error", err)
		RespondWithError(c, status, "Internal server error")
		return
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err, "cause", errors.Unwrap(err))
	}
	RespondWithError(c, status, appErr.Message)
}
