package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// SessionPayload is the editable representation of a session.
type SessionPayload struct {
	ID               string `json:"id"`
	ScheduleType     string `json:"schedule_type" validate:"required,oneof=theory lab"`
	Day              string `json:"day" validate:"required"`
	TimeSlot         string `json:"time_slot" validate:"required_if=ScheduleType theory"`
	SessionName      string `json:"session_name"`
	TimeRange        string `json:"time_range"`
	TeacherID        string `json:"teacher_id" validate:"required"`
	TeacherName      string `json:"teacher_name"`
	StaffCode        string `json:"staff_code"`
	RoomID           string `json:"room_id" validate:"required"`
	RoomNumber       string `json:"room_number"`
	Block            string `json:"block"`
	Capacity         int    `json:"capacity" validate:"min=0"`
	StudentCount     int    `json:"student_count" validate:"min=0"`
	GroupName        string `json:"group_name" validate:"required"`
	CourseCode       string `json:"course_code" validate:"required"`
	CourseName       string `json:"course_name"`
	CourseInstanceID string `json:"course_instance_id"`
	Department       string `json:"department"`
	StudentDept      string `json:"student_dept"`
	DayPattern       string `json:"day_pattern"`
	IsBatched        bool   `json:"is_batched"`
	SessionInfo      string `json:"session_info"`
}

// ToModel converts the payload into a session record.
func (p SessionPayload) ToModel() models.Session {
	return models.Session{
		ID:               p.ID,
		ScheduleType:     models.ScheduleType(p.ScheduleType),
		Day:              p.Day,
		TimeSlot:         p.TimeSlot,
		SessionName:      p.SessionName,
		TimeRange:        p.TimeRange,
		TeacherID:        p.TeacherID,
		TeacherName:      p.TeacherName,
		StaffCode:        p.StaffCode,
		RoomID:           p.RoomID,
		RoomNumber:       p.RoomNumber,
		Block:            p.Block,
		Capacity:         p.Capacity,
		StudentCount:     p.StudentCount,
		GroupName:        p.GroupName,
		CourseCode:       p.CourseCode,
		CourseName:       p.CourseName,
		CourseInstanceID: p.CourseInstanceID,
		DepartmentName:   p.Department,
		StudentDept:      p.StudentDept,
		DayPattern:       p.DayPattern,
		IsBatched:        p.IsBatched,
		SessionInfo:      p.SessionInfo,
	}
}

// ValidateAllocationRequest asks whether a session could be committed. OriginalIndex
// identifies the session being replaced; omit it for a new session.
type ValidateAllocationRequest struct {
	OriginalIndex *int           `json:"original_index" validate:"omitempty,min=0"`
	Session       SessionPayload `json:"session"`
}

// ConflictQuery filters the conflict listing.
type ConflictQuery struct {
	Type     string `form:"type" validate:"omitempty,oneof=teacher_conflict room_conflict group_conflict capacity_violation duplicate_sessions same_group_mixed_session_overlap"`
	Severity string `form:"severity" validate:"omitempty,oneof=high medium warning"`
}

// AvailabilityQuery selects the day and time queried by availability lookups.
type AvailabilityQuery struct {
	Day          string `form:"day" validate:"required"`
	Time         string `form:"time"`
	ScheduleType string `form:"schedule_type" validate:"omitempty,oneof=theory lab"`
	ExcludeIndex *int   `form:"exclude_index" validate:"omitempty,min=0"`
	RoomID       string `form:"room_id"`
	TeacherID    string `form:"teacher_id"`
	GroupName    string `form:"group_name"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// SessionListResponse wraps a search result.
type SessionListResponse struct {
	Generation uint64                  `json:"generation"`
	Sessions   []models.IndexedSession `json:"sessions"`
}

// ReloadResponse summarises a reload.
type ReloadResponse struct {
	Generation        uint64 `json:"generation"`
	SessionCount      int    `json:"session_count"`
	RemovedDuplicates int    `json:"removed_duplicates"`
	Conflicts         int    `json:"conflicts"`
}
