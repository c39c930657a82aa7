package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestEditorFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fields := editorFields(c)
	require.Len(t, fields, 1)
	assert.Equal(t, "anonymous", fields[0].String)

	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u7", Role: models.RoleScheduler})
	fields = editorFields(c)
	require.Len(t, fields, 2)
	assert.Equal(t, "u7", fields[0].String)
	assert.Equal(t, string(models.RoleScheduler), fields[1].String)
}
