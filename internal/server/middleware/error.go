package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/pkg/api"
)

// ErrorHandler maps errors attached by handlers to JSON responses. Problems
// serialize per RFC 9457; app errors keep their status; anything else is a
// 500 catch-all.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var problem *api.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("request problem", zap.Error(problem.Log))
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		var appErr *api.Error
		if errors.As(err, &appErr) {
			if appErr.Log != nil {
				logger.Error("request error", zap.Error(appErr.Log))
			}
			c.JSON(appErr.Code, gin.H{"error": appErr.Message})
			c.Abort()
			return
		}

		logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred."})
		c.Abort()
	}
}
