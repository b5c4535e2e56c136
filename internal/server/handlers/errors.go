package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrFormat),
		errors.Is(err, models.ErrConfirmationRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides store failures from clients.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// respondError logs err once and writes a JSON error body.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	logRequestError(logger, op, status, err)
	c.JSON(status, gin.H{"error": publicMessage(err, status)})
}

// redirectWithError flashes err and sends the browser back to the page.
func redirectWithError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	logRequestError(logger, op, status, err)
	setFlash(c, flashError, fmt.Sprintf("Error: %s", publicMessage(err, status)))
	c.Redirect(http.StatusSeeOther, "/")
}

func logRequestError(logger *zap.Logger, op string, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Int("status", status), zap.Error(err))
		return
	}
	logger.Warn(op+" rejected", zap.Int("status", status), zap.Error(err))
}
