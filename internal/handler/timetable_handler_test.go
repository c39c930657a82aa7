package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

func fixtureSessions() ([]models.Session, []models.Session) {
	lab := []models.Session{{
		Day: "Monday", SessionName: "L2", TimeRange: "10:00 - 11:40",
		TeacherID: "T1", TeacherName: "Teacher One", RoomID: "CSE-LAB", RoomNumber: "CSE Lab",
		GroupName: "CSE_S3", CourseCode: "CS201", CourseInstanceID: "CS201-1", StudentCount: 30,
	}}
	theory := []models.Session{
		{
			Day: "Monday", TimeSlot: "9:00 - 9:50", TeacherID: "T2", TeacherName: "Teacher Two",
			RoomID: "R1", RoomNumber: "A-101", GroupName: "CSE_S3", CourseCode: "CS101", CourseInstanceID: "CS101-1", StudentCount: 30,
		},
		{
			Day: "Monday", TimeSlot: "10:00 - 10:50", TeacherID: "T3", TeacherName: "Teacher Three",
			RoomID: "R2", RoomNumber: "A-102", GroupName: "MECH_S1", CourseCode: "MA101", CourseInstanceID: "MA101-1", StudentCount: 30,
		},
	}
	return lab, theory
}

func newTestRouter(t *testing.T, loaded bool) (*gin.Engine, *service.TimetableService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewTimetableService(nil, nil, nil, nil, nil, nil, service.TimetableConfig{})
	if loaded {
		lab, theory := fixtureSessions()
		svc.LoadSessions(context.Background(), lab, theory)
	}
	timetable := NewTimetableHandler(svc, nil, nil)
	exports := NewExportHandler(service.NewExportService(svc, nil, nil, nil, nil), nil)
	metrics := NewMetricsHandler(service.NewMetricsService(), svc)

	r := gin.New()
	r.GET("/ready", metrics.Ready)
	g := r.Group("/timetable")
	g.GET("/sessions", timetable.ListSessions)
	g.GET("/sessions/:index", timetable.GetSession)
	g.GET("/sessions/:index/conflicts", timetable.SessionConflicts)
	g.PUT("/sessions/:index", timetable.UpdateSession)
	g.POST("/allocations/validate", timetable.ValidateAllocation)
	g.GET("/conflicts", timetable.ListConflicts)
	g.GET("/conflicts/summary", timetable.ConflictSummary)
	g.GET("/availability/rooms", timetable.AvailableRooms)
	g.GET("/availability/slots", timetable.AvailableTimeSlots)
	g.GET("/exports/conflicts", exports.Conflicts)
	g.GET("/exports/sessions", exports.Sessions)
	return r, svc
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func perform(t *testing.T, r *gin.Engine, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func sessionPayload(teacherID, day, slot string) map[string]interface{} {
	return map[string]interface{}{
		"schedule_type": "theory",
		"day":           day,
		"time_slot":     slot,
		"teacher_id":    teacherID,
		"room_id":       "R2",
		"room_number":   "A-102",
		"group_name":    "MECH_S1",
		"course_code":   "MA101",
		"student_count": 30,
	}
}

func TestTimetableHandlerNotLoaded(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w, env := perform(t, r, http.MethodGet, "/timetable/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "TIMETABLE_NOT_LOADED", env.Error["code"])

	w, _ = perform(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTimetableHandlerListSessions(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, env := perform(t, r, http.MethodGet, "/timetable/sessions?q=ma101", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Sessions []models.IndexedSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, 2, list.Sessions[0].Index)
	assert.EqualValues(t, 1, env.Meta["count"])

	w, _ = perform(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerSessionIndexErrors(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, _ := perform(t, r, http.MethodGet, "/timetable/sessions/abc/conflicts", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, r, http.MethodGet, "/timetable/sessions/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerUpdateSessionRejected(t *testing.T) {
	r, svc := newTestRouter(t, true)
	before := svc.Generation()

	w, env := perform(t, r, http.MethodPut, "/timetable/sessions/2", sessionPayload("T2", "Monday", "9:00 - 9:50"))
	require.Equal(t, http.StatusConflict, w.Code)

	var result models.AllocationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Conflicts)
	assert.Equal(t, models.IssueTeacherConflict, result.Conflicts[0].Type)
	assert.Equal(t, "ALLOCATION_REJECTED", env.Meta["error_code"])
	assert.Equal(t, before, svc.Generation())
}

func TestTimetableHandlerUpdateSessionApplied(t *testing.T) {
	r, svc := newTestRouter(t, true)

	w, env := perform(t, r, http.MethodPut, "/timetable/sessions/2", sessionPayload("T3", "Tuesday", "11:00 - 11:50"))
	require.Equal(t, http.StatusOK, w.Code)

	var result models.AllocationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Success)
	updated, err := svc.Session(2)
	require.NoError(t, err)
	assert.Equal(t, "Tuesday", updated.Day)
}

func TestTimetableHandlerUpdateSessionInvalidPayload(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, env := perform(t, r, http.MethodPut, "/timetable/sessions/2", map[string]interface{}{"schedule_type": "seminar"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error["code"])
}

func TestTimetableHandlerValidateAllocation(t *testing.T) {
	r, _ := newTestRouter(t, true)

	body := map[string]interface{}{"session": sessionPayload("T2", "Monday", "9:00 - 9:50")}
	w, env := perform(t, r, http.MethodPost, "/timetable/allocations/validate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ValidationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.IsValid)
}

func TestTimetableHandlerListConflictsRejectsUnknownSeverity(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, _ := perform(t, r, http.MethodGet, "/timetable/conflicts?severity=critical", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = perform(t, r, http.MethodGet, "/timetable/conflicts?severity=high", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = perform(t, r, http.MethodGet, "/timetable/conflicts/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimetableHandlerAvailableRooms(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, _ := perform(t, r, http.MethodGet, "/timetable/availability/rooms?day=Monday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := perform(t, r, http.MethodGet, "/timetable/availability/rooms?day=Monday&time=9%3A00%20-%209%3A50&schedule_type=theory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []models.Room
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	assert.ElementsMatch(t, []string{"R2", "CSE-LAB"}, ids)
}

func TestTimetableHandlerAvailableSlots(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, env := perform(t, r, http.MethodGet, "/timetable/availability/slots?day=Monday&schedule_type=theory&room_id=R1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []models.TimeSlotOption
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	assert.Len(t, slots, 10)
	for _, slot := range slots {
		assert.NotEqual(t, "9:00 - 9:50", slot.Key)
	}
}

func TestExportHandler(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w, env := perform(t, r, http.MethodGet, "/timetable/exports/conflicts?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", env.Error["code"])

	w, _ = perform(t, r, http.MethodGet, "/timetable/exports/sessions?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.Contains(t, w.Body.String(), "CS201")
}
