package models

// Validation issue types raised by the allocation validator.
const (
	IssueTeacherConflict   = "teacher_conflict"
	IssueRoomConflict      = "room_conflict"
	IssueCapacityViolation = "capacity_violation"
	IssueCapacityWarning   = "capacity_warning"
	IssueInvalidTimeSlot   = "invalid_time_slot"
	IssueCoScheduled       = "co_scheduling_applied"
)

// ValidationIssue is a conflict or warning produced while validating a proposed session.
type ValidationIssue struct {
	Type               string          `json:"type"`
	Message            string          `json:"message"`
	ConflictingSession *IndexedSession `json:"conflicting_session,omitempty"`
	Details            map[string]any  `json:"details,omitempty"`
}

// ValidationResult reports whether a proposed session may be committed.
type ValidationResult struct {
	IsValid   bool              `json:"is_valid"`
	Conflicts []ValidationIssue `json:"conflicts"`
	Warnings  []ValidationIssue `json:"warnings"`
}

// AllocationResult is returned to the edit collaborator after an apply attempt.
type AllocationResult struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Index     int               `json:"index"`
	Conflicts []ValidationIssue `json:"conflicts,omitempty"`
	Warnings  []ValidationIssue `json:"warnings,omitempty"`
	Report    *ConflictReport   `json:"report,omitempty"`
}

// ScheduleSnapshot is the full export of the directory state.
type ScheduleSnapshot struct {
	LabSessions    []Session       `json:"lab_data"`
	TheorySessions []Session       `json:"theory_data"`
	AllSessions    []Session       `json:"all_data"`
	Report         ConflictReport  `json:"conflicts"`
	Summary        ConflictSummary `json:"conflict_summary"`
}

// TimeSlotOption describes a free slot returned by availability queries.
type TimeSlotOption struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Display string `json:"display"`
}

// SlotFilter restricts availability lookups to a room, teacher or group.
type SlotFilter struct {
	RoomID    string
	TeacherID string
	GroupName string
}
