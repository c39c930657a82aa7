package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type exportService interface {
	ExportConflicts(format string, filter models.ConflictFilter) (*service.ExportFile, error)
	ExportSessions(format, query string) (*service.ExportFile, error)
}

// ExportHandler streams rendered timetable exports.
type ExportHandler struct {
	service  exportService
	validate *validator.Validate
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc exportService, validate *validator.Validate) *ExportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ExportHandler{service: svc, validate: validate}
}

// Conflicts godoc
// @Summary Download the conflict report
// @Tags Exports
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx"
// @Param type query string false "Conflict type"
// @Param severity query string false "Severity"
// @Success 200 {file} file
// @Router /timetable/exports/conflicts [get]
func (h *ExportHandler) Conflicts(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict filter"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict filter"))
		return
	}
	file, err := h.service.ExportConflicts(format, models.ConflictFilter{
		Type:     models.ConflictType(query.Type),
		Severity: models.Severity(query.Severity),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Sessions godoc
// @Summary Download the session list
// @Tags Exports
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx"
// @Param q query string false "Search filter"
// @Success 200 {file} file
// @Router /timetable/exports/sessions [get]
func (h *ExportHandler) Sessions(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}
	file, err := h.service.ExportSessions(format, strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

func (h *ExportHandler) format(c *gin.Context) (string, bool) {
	query := dto.ExportQuery{Format: strings.ToLower(strings.TrimSpace(c.Query("format")))}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", query.Format)))
		return "", false
	}
	return query.Format, true
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
