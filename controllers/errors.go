package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/rules"
	"terrainhub/services"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rules.ErrInsufficientPoints), errors.Is(err, rules.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, rules.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, rules.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrDuplicate), errors.Is(err, rules.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, rules.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Unexpected errors are logged at
// ERROR, which forwards them to Sentry, and hidden behind a generic message.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusForbidden && middlewares.PrincipalFrom(c).Email == "" {
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		slog.Error(fallback, "path", c.FullPath(), "request_id", c.GetString("requestID"), "error", err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["message"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
