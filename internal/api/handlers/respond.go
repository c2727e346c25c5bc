package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
	"github.com/harshdeep1289/marketplace-platform/internal/logger"

	"go.uber.org/zap"
)

// IAsynqClient defines the interface for enqueuing background tasks.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// respondError maps a service error onto the HTTP response. Internal errors
// are logged and masked.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
