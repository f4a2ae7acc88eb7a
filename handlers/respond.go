package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schedly/models"
)

// statusFor maps a domain rejection code to its HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeConflict:
		return http.StatusConflict
	case models.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a domain error with its mapped status, or a generic
// 500 for anything that is not a DomainError.
func respondError(c *gin.Context, err error) {
	code := models.CodeOf(err)
	if code == "" {
		zap.L().Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(statusFor(code), gin.H{"error": err.Error(), "code": string(code)})
}

// parseDate parses the required date query parameter as YYYY-MM-DD.
func parseDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing date query parameter, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD", "details": err.Error()})
		return time.Time{}, false
	}
	return date, true
}
