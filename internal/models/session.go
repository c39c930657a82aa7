package models

import "strings"

// ScheduleType distinguishes lecture sessions from laboratory sessions.
type ScheduleType string

const (
	ScheduleTypeTheory ScheduleType = "theory"
	ScheduleTypeLab    ScheduleType = "lab"
)

// Session is one scheduled meeting of a course. Theory sessions carry TimeSlot,
// lab sessions carry SessionName and/or TimeRange.
type Session struct {
	ID               string       `db:"id" json:"id,omitempty"`
	ScheduleType     ScheduleType `db:"schedule_type" json:"schedule_type"`
	Day              string       `db:"day" json:"day"`
	TimeSlot         string       `db:"time_slot" json:"time_slot,omitempty"`
	SessionName      string       `db:"session_name" json:"session_name,omitempty"`
	TimeRange        string       `db:"time_range" json:"time_range,omitempty"`
	TeacherID        string       `db:"teacher_id" json:"teacher_id"`
	TeacherName      string       `db:"teacher_name" json:"teacher_name"`
	StaffCode        string       `db:"staff_code" json:"staff_code,omitempty"`
	RoomID           string       `db:"room_id" json:"room_id"`
	RoomNumber       string       `db:"room_number" json:"room_number"`
	Block            string       `db:"block" json:"block,omitempty"`
	Capacity         int          `db:"capacity" json:"capacity"`
	StudentCount     int          `db:"student_count" json:"student_count"`
	GroupName        string       `db:"group_name" json:"group_name"`
	CourseCode       string       `db:"course_code" json:"course_code"`
	CourseName       string       `db:"course_name" json:"course_name,omitempty"`
	CourseInstanceID string       `db:"course_instance_id" json:"course_instance_id,omitempty"`
	DepartmentName   string       `db:"department" json:"department,omitempty"`
	StudentDept      string       `db:"student_dept" json:"student_dept,omitempty"`
	DayPattern       string       `db:"day_pattern" json:"day_pattern,omitempty"`

	IsBatched                bool   `db:"is_batched" json:"is_batched,omitempty"`
	SessionInfo              string `db:"session_info" json:"session_info,omitempty"`
	IsCoScheduled            bool   `db:"is_co_scheduled" json:"is_co_scheduled,omitempty"`
	CoScheduleID             string `db:"co_schedule_id" json:"co_schedule_id,omitempty"`
	CoScheduleInfo           string `db:"co_schedule_info" json:"co_schedule_info,omitempty"`
	IsDifferentCourseAllowed bool   `db:"is_different_course_allowed" json:"is_different_course_allowed,omitempty"`
}

// IsLab reports whether the session is a laboratory session.
func (s Session) IsLab() bool {
	return s.ScheduleType == ScheduleTypeLab
}

// Department returns the owning department, falling back to the student department.
func (s Session) Department() string {
	if s.DepartmentName != "" {
		return s.DepartmentName
	}
	return s.StudentDept
}

// GroupDepartment derives the department prefix encoded in the group name (e.g. "CSE_S3" -> "CSE").
func (s Session) GroupDepartment() string {
	if idx := strings.Index(s.GroupName, "_S"); idx >= 0 {
		return s.GroupName[:idx]
	}
	return s.GroupName
}

// IndexedSession pairs a session with its position in the directory.
type IndexedSession struct {
	Index   int     `json:"index"`
	Session Session `json:"session"`
}
