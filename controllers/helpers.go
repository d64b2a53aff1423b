package controllers

import (
	"errors"
	"log"
	"net/http"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

// requireUser aborts with 401 when the auth middleware did not run.
func requireUser(c *gin.Context) (uint, bool) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return uid, ok
}

// respondError maps service errors to status codes and payloads.
func respondError(c *gin.Context, err error) {
	var (
		noIntake   *services.NoIntakeError
		external   *services.ExternalCallError
		parseErr   *services.ResponseParseError
		validation *services.ValidationError
	)
	switch {
	case errors.As(err, &noIntake):
		c.JSON(http.StatusBadRequest, gin.H{"error": noIntake.Error(), "date": noIntake.Date})
	case errors.As(err, &external):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "External evaluation service failed",
			"stage":  "external_call",
			"detail": external.Err.Error(),
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to parse GPT response",
			"stage":  "parse",
			"raw":    parseErr.Raw,
			"detail": parseErr.Detail,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, validation.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, services.ErrInvalidResetCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
