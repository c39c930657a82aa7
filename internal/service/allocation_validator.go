package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
)

// NewSessionIndex marks a candidate that does not replace an existing session.
const NewSessionIndex = -1

// AllocationValidator checks one proposed session against the rest of the directory.
type AllocationValidator struct {
	dir       *SessionDirectory
	evaluator *CoScheduleEvaluator
}

// NewAllocationValidator constructs a validator bound to a directory.
func NewAllocationValidator(dir *SessionDirectory, evaluator *CoScheduleEvaluator) *AllocationValidator {
	if evaluator == nil {
		evaluator = NewCoScheduleEvaluator()
	}
	return &AllocationValidator{dir: dir, evaluator: evaluator}
}

// Validate checks candidate as if it replaced the session at originalIndex
// (or was appended when originalIndex is NewSessionIndex). The directory is not modified.
func (v *AllocationValidator) Validate(candidate models.Session, originalIndex int) models.ValidationResult {
	result := models.ValidationResult{
		IsValid:   true,
		Conflicts: make([]models.ValidationIssue, 0),
		Warnings:  make([]models.ValidationIssue, 0),
	}
	others := v.others(originalIndex)

	result.Conflicts = append(result.Conflicts, v.checkTeacher(candidate, others)...)
	result.Conflicts = append(result.Conflicts, v.checkRoom(candidate, others)...)
	result.Warnings = append(result.Warnings, v.checkGroup(candidate, others)...)

	capacityConflicts, capacityWarnings := v.checkCapacity(candidate)
	result.Conflicts = append(result.Conflicts, capacityConflicts...)
	result.Warnings = append(result.Warnings, capacityWarnings...)
	result.Conflicts = append(result.Conflicts, checkTimeSlot(candidate)...)

	result.IsValid = len(result.Conflicts) == 0
	return result
}

func (v *AllocationValidator) others(originalIndex int) []models.IndexedSession {
	all := v.dir.Indexed()
	out := make([]models.IndexedSession, 0, len(all))
	for _, item := range all {
		if item.Index == originalIndex {
			continue
		}
		out = append(out, item)
	}
	return out
}

func clashing(candidate models.Session, others []models.IndexedSession, sameEntity func(models.Session) bool) []models.IndexedSession {
	out := make([]models.IndexedSession, 0)
	for _, item := range others {
		if !sameEntity(item.Session) || !SameDay(candidate, item.Session) || !SameTime(candidate, item.Session) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (v *AllocationValidator) checkTeacher(candidate models.Session, others []models.IndexedSession) []models.ValidationIssue {
	if candidate.TeacherID == "" {
		return nil
	}
	issues := make([]models.ValidationIssue, 0)
	for _, item := range clashing(candidate, others, func(s models.Session) bool { return s.TeacherID == candidate.TeacherID }) {
		conflicting := item
		issues = append(issues, models.ValidationIssue{
			Type:               models.IssueTeacherConflict,
			Message:            fmt.Sprintf("Teacher %s is already teaching %s at %s on %s", candidate.TeacherName, item.Session.CourseCode, TimeKey(item.Session), item.Session.Day),
			ConflictingSession: &conflicting,
		})
	}
	return issues
}

func (v *AllocationValidator) checkRoom(candidate models.Session, others []models.IndexedSession) []models.ValidationIssue {
	if candidate.RoomID == "" {
		return nil
	}
	issues := make([]models.ValidationIssue, 0)
	for _, item := range clashing(candidate, others, func(s models.Session) bool { return s.RoomID == candidate.RoomID }) {
		conflicting := item
		issues = append(issues, models.ValidationIssue{
			Type:               models.IssueRoomConflict,
			Message:            fmt.Sprintf("Room %s is already booked for %s at %s on %s", candidate.RoomNumber, item.Session.CourseCode, TimeKey(item.Session), item.Session.Day),
			ConflictingSession: &conflicting,
		})
	}
	return issues
}

// checkGroup never blocks; it records which co-scheduling rule admits the overlap.
func (v *AllocationValidator) checkGroup(candidate models.Session, others []models.IndexedSession) []models.ValidationIssue {
	if candidate.GroupName == "" {
		return nil
	}
	overlapping := clashing(candidate, others, func(s models.Session) bool { return s.GroupName == candidate.GroupName })
	if len(overlapping) == 0 {
		return nil
	}
	sessions := make([]models.Session, 0, len(overlapping)+1)
	codes := make([]string, 0, len(overlapping))
	for _, item := range overlapping {
		sessions = append(sessions, item.Session)
		codes = append(codes, item.Session.CourseCode)
	}
	sessions = append(sessions, candidate)
	decision := v.evaluator.Evaluate(sessions)

	issueType := models.IssueCoScheduled
	message := fmt.Sprintf("Group %s shares this slot with %d session(s): %s", candidate.GroupName, len(overlapping), CoScheduleStamp(decision))
	if !decision.Allowed {
		issueType = string(models.ConflictGroup)
		message = fmt.Sprintf("Group %s has overlapping sessions: %s", candidate.GroupName, decision.Reason)
	}
	return []models.ValidationIssue{{
		Type:    issueType,
		Message: message,
		Details: map[string]any{
			"group":       candidate.GroupName,
			"courses":     codes,
			"allowed":     decision.Allowed,
			"rule":        decision.Rule,
			"rule_number": decision.RuleNumber,
			"reason":      decision.Reason,
		},
	}}
}

// EffectiveCapacity is the declared session capacity, falling back to the room's derived capacity.
func (v *AllocationValidator) EffectiveCapacity(candidate models.Session) int {
	if candidate.Capacity > 0 {
		return candidate.Capacity
	}
	if room, ok := v.dir.Room(candidate.RoomID); ok {
		return room.Capacity
	}
	return 0
}

func (v *AllocationValidator) checkCapacity(candidate models.Session) ([]models.ValidationIssue, []models.ValidationIssue) {
	capacity := v.EffectiveCapacity(candidate)
	students := candidate.StudentCount
	if capacity <= 0 || students <= 0 {
		return nil, nil
	}
	if students > capacity {
		return []models.ValidationIssue{{
			Type:    models.IssueCapacityViolation,
			Message: fmt.Sprintf("Student count (%d) exceeds room capacity (%d)", students, capacity),
			Details: map[string]any{
				"capacity": capacity,
				"students": students,
				"overflow": students - capacity,
			},
		}}, nil
	}
	// a full room is not flagged; only the band between 90% and full warns
	if students < capacity && students*10 > capacity*9 {
		utilization := float64(students) / float64(capacity) * 100
		return nil, []models.ValidationIssue{{
			Type:    models.IssueCapacityWarning,
			Message: fmt.Sprintf("Room utilization is high (%.1f%%)", utilization),
			Details: map[string]any{
				"capacity":    capacity,
				"students":    students,
				"utilization": utilization,
			},
		}}
	}
	return nil, nil
}

func checkTimeSlot(candidate models.Session) []models.ValidationIssue {
	if candidate.IsLab() {
		if timeslot.IsLabRange(candidate.TimeRange) || timeslot.IsLabCode(candidate.SessionName) {
			return nil
		}
		label := candidate.TimeRange
		if label == "" {
			label = candidate.SessionName
		}
		return []models.ValidationIssue{{
			Type:    models.IssueInvalidTimeSlot,
			Message: fmt.Sprintf("Invalid lab time slot: %s", label),
		}}
	}
	if timeslot.IsTheorySlot(candidate.TimeSlot) {
		return nil
	}
	return []models.ValidationIssue{{
		Type:    models.IssueInvalidTimeSlot,
		Message: fmt.Sprintf("Invalid theory time slot: %s", candidate.TimeSlot),
	}}
}

// SessionConflicts lists teacher and room clashes of the session at index against every other session.
func (v *AllocationValidator) SessionConflicts(index int) []models.ValidationIssue {
	session, ok := v.dir.At(index)
	if !ok {
		return nil
	}
	others := v.others(index)
	issues := make([]models.ValidationIssue, 0)
	issues = append(issues, v.checkTeacher(session, others)...)
	issues = append(issues, v.checkRoom(session, others)...)
	return issues
}
