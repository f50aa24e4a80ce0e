package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-affairs-api/internal/models"
)

// AuditWriter persists audit rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserResolver maps a token uid to the internal user record.
type UserResolver interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// Audit records who called a sensitive route, whatever the outcome. The caller
// is stored as users.id; callers users cannot resolve are stored without one.
// The path parameter named by param, when set, becomes the resource id.
func Audit(writer AuditWriter, users UserResolver, logger *zap.Logger, action, resource, param string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		var userID *string
		if claims := Claims(c); claims != nil && claims.UserID != "" && users != nil {
			if user, err := users.FindByExternalID(c.Request.Context(), claims.UserID); err == nil {
				userID = &user.ID
			} else {
				logger.Debug("audit caller not resolved", zap.String("uid", claims.UserID), zap.Error(err))
			}
		}
		var resourceID *string
		if param != "" {
			if v := c.Param(param); v != "" {
				resourceID = &v
			}
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := writer.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("failed to record request audit", zap.String("action", action), zap.Error(err))
		}
	}
}
