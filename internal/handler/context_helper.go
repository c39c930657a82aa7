package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// editorFields identifies who committed a timetable edit for the audit log.
func editorFields(c *gin.Context) []zap.Field {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return []zap.Field{zap.String("editor", "anonymous")}
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		return []zap.Field{zap.String("editor", "unknown")}
	}
	return []zap.Field{
		zap.String("editor", claims.UserID),
		zap.String("editor_role", string(claims.Role)),
	}
}
