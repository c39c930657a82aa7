package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Load(ctx context.Context) (*models.ConflictReport, error)
	Generation() uint64
	Session(index int) (models.Session, error)
	SearchSessions(query string) ([]models.IndexedSession, error)
	SessionConflicts(index int) ([]models.ValidationIssue, error)
	ValidateProposal(req dto.ValidateAllocationRequest) (models.ValidationResult, error)
	ApplyProposal(ctx context.Context, index int, payload dto.SessionPayload) (models.AllocationResult, error)
	ListConflicts(query dto.ConflictQuery) ([]models.Conflict, error)
	ConflictSummary(ctx context.Context) (models.ConflictSummary, error)
	Entities() (models.Entities, error)
	AvailableRooms(day, timeKey string, scheduleType models.ScheduleType, excludeIndex int) ([]models.Room, error)
	AvailableTeachers(day, timeKey string, excludeIndex int) ([]models.Teacher, error)
	AvailableTimeSlots(day string, scheduleType models.ScheduleType, filter models.SlotFilter, excludeIndex int) ([]models.TimeSlotOption, error)
	Snapshot(ctx context.Context) (models.ScheduleSnapshot, error)
}

// TimetableHandler exposes conflict analysis and allocation endpoints.
type TimetableHandler struct {
	service  timetableService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(svc timetableService, validate *validator.Validate, logger *zap.Logger) *TimetableHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableHandler{service: svc, validate: validate, logger: logger}
}

// ListSessions godoc
// @Summary Search sessions
// @Tags Timetable
// @Produce json
// @Param q query string false "Case-insensitive search on course, teacher, room or group"
// @Success 200 {object} response.Envelope
// @Router /timetable/sessions [get]
func (h *TimetableHandler) ListSessions(c *gin.Context) {
	sessions, err := h.service.SearchSessions(strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SessionListResponse{Generation: h.service.Generation(), Sessions: sessions}, nil,
		map[string]interface{}{"count": len(sessions)})
}

// GetSession godoc
// @Summary Get a session by index
// @Tags Timetable
// @Produce json
// @Param index path int true "Session index"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/sessions/{index} [get]
func (h *TimetableHandler) GetSession(c *gin.Context) {
	index, ok := sessionIndex(c)
	if !ok {
		return
	}
	session, err := h.service.Session(index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.IndexedSession{Index: index, Session: session}, nil)
}

// SessionConflicts godoc
// @Summary List teacher and room clashes of one session
// @Tags Timetable
// @Produce json
// @Param index path int true "Session index"
// @Success 200 {object} response.Envelope
// @Router /timetable/sessions/{index}/conflicts [get]
func (h *TimetableHandler) SessionConflicts(c *gin.Context) {
	index, ok := sessionIndex(c)
	if !ok {
		return
	}
	issues, err := h.service.SessionConflicts(index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, nil)
}

// UpdateSession godoc
// @Summary Apply an allocation change
// @Description Validates the new session and commits it in place. Rejections return 409 with the validation result.
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param index path int true "Session index"
// @Param payload body dto.SessionPayload true "Replacement session"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/sessions/{index} [put]
func (h *TimetableHandler) UpdateSession(c *gin.Context) {
	index, ok := sessionIndex(c)
	if !ok {
		return
	}
	var payload dto.SessionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	result, err := h.service.ApplyProposal(c.Request.Context(), index, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Success {
		response.JSON(c, http.StatusConflict, result, nil, map[string]interface{}{"error_code": appErrors.ErrAllocationRejected.Code})
		return
	}
	h.logger.Info("allocation change committed", append(editorFields(c), zap.Int("index", index))...)
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateAllocation godoc
// @Summary Validate a proposed allocation without committing it
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ValidateAllocationRequest true "Proposal"
// @Success 200 {object} response.Envelope
// @Router /timetable/allocations/validate [post]
func (h *TimetableHandler) ValidateAllocation(c *gin.Context) {
	var req dto.ValidateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}
	result, err := h.service.ValidateProposal(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListConflicts godoc
// @Summary List conflicts of the latest analysis
// @Tags Timetable
// @Produce json
// @Param type query string false "Conflict type"
// @Param severity query string false "Severity"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts [get]
func (h *TimetableHandler) ListConflicts(c *gin.Context) {
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict filter"))
		return
	}
	conflicts, err := h.service.ListConflicts(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil, map[string]interface{}{"count": len(conflicts)})
}

// ConflictSummary godoc
// @Summary Count conflicts by type and severity
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/summary [get]
func (h *TimetableHandler) ConflictSummary(c *gin.Context) {
	summary, err := h.service.ConflictSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Entities godoc
// @Summary List teachers, rooms and groups
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/entities [get]
func (h *TimetableHandler) Entities(c *gin.Context) {
	entities, err := h.service.Entities()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entities, nil)
}

// AvailableRooms godoc
// @Summary List rooms free at a day and time
// @Tags Availability
// @Produce json
// @Param day query string true "Day"
// @Param time query string true "Time slot, lab code or range"
// @Param schedule_type query string false "theory or lab"
// @Param exclude_index query int false "Session index to ignore"
// @Success 200 {object} response.Envelope
// @Router /timetable/availability/rooms [get]
func (h *TimetableHandler) AvailableRooms(c *gin.Context) {
	query, ok := h.availabilityQuery(c, true)
	if !ok {
		return
	}
	rooms, err := h.service.AvailableRooms(query.Day, query.Time, models.ScheduleType(query.ScheduleType), excludeIndex(query))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// AvailableTeachers godoc
// @Summary List teachers free at a day and time
// @Tags Availability
// @Produce json
// @Param day query string true "Day"
// @Param time query string true "Time slot, lab code or range"
// @Param exclude_index query int false "Session index to ignore"
// @Success 200 {object} response.Envelope
// @Router /timetable/availability/teachers [get]
func (h *TimetableHandler) AvailableTeachers(c *gin.Context) {
	query, ok := h.availabilityQuery(c, true)
	if !ok {
		return
	}
	teachers, err := h.service.AvailableTeachers(query.Day, query.Time, excludeIndex(query))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// AvailableTimeSlots godoc
// @Summary List canonical slots free on a day
// @Tags Availability
// @Produce json
// @Param day query string true "Day"
// @Param schedule_type query string false "theory or lab"
// @Param room_id query string false "Room filter"
// @Param teacher_id query string false "Teacher filter"
// @Param group_name query string false "Group filter"
// @Param exclude_index query int false "Session index to ignore"
// @Success 200 {object} response.Envelope
// @Router /timetable/availability/slots [get]
func (h *TimetableHandler) AvailableTimeSlots(c *gin.Context) {
	query, ok := h.availabilityQuery(c, false)
	if !ok {
		return
	}
	filter := models.SlotFilter{RoomID: query.RoomID, TeacherID: query.TeacherID, GroupName: query.GroupName}
	slots, err := h.service.AvailableTimeSlots(query.Day, models.ScheduleType(query.ScheduleType), filter, excludeIndex(query))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Reload godoc
// @Summary Reload sessions from storage and re-run the analysis
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetable/reload [post]
func (h *TimetableHandler) Reload(c *gin.Context) {
	report, err := h.service.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReloadResponse{
		Generation:        report.Generation,
		SessionCount:      report.SessionCount,
		RemovedDuplicates: report.RemovedDuplicates,
		Conflicts:         len(report.Conflicts),
	}, nil)
}

// Snapshot godoc
// @Summary Export the full timetable with its conflict report
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/snapshot [get]
func (h *TimetableHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

func (h *TimetableHandler) availabilityQuery(c *gin.Context, needTime bool) (dto.AvailabilityQuery, bool) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return query, false
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return query, false
	}
	if needTime && strings.TrimSpace(query.Time) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "time is required"))
		return query, false
	}
	return query, true
}

func excludeIndex(query dto.AvailabilityQuery) int {
	if query.ExcludeIndex == nil {
		return service.NewSessionIndex
	}
	return *query.ExcludeIndex
}

func sessionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
