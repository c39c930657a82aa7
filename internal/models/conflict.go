package models

import "time"

// ConflictType enumerates the kinds of findings in a conflict report.
type ConflictType string

const (
	ConflictTeacher           ConflictType = "teacher_conflict"
	ConflictRoom              ConflictType = "room_conflict"
	ConflictGroup             ConflictType = "group_conflict"
	ConflictCapacity          ConflictType = "capacity_violation"
	ConflictDuplicateSessions ConflictType = "duplicate_sessions"
	// ConflictGroupMixedOverlap flags a group whose lab and theory sessions overlap on one day.
	ConflictGroupMixedOverlap ConflictType = "same_group_mixed_session_overlap"
)

// Severity ranks conflicts for presentation.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityWarning Severity = "warning"
)

// Conflict is a single finding. Conflicts are recomputed from scratch after every mutation.
type Conflict struct {
	Type     ConflictType     `json:"type"`
	Severity Severity         `json:"severity"`
	Message  string           `json:"message"`
	Sessions []IndexedSession `json:"sessions"`
	Details  map[string]any   `json:"details,omitempty"`
}

// ConflictReport is the result of a full analysis pass over the directory.
type ConflictReport struct {
	Generation        uint64     `json:"generation"`
	GeneratedAt       time.Time  `json:"generated_at"`
	SessionCount      int        `json:"session_count"`
	RemovedDuplicates int        `json:"removed_duplicates"`
	Conflicts         []Conflict `json:"conflicts"`
}

// ConflictSummary counts conflicts by type and severity.
type ConflictSummary struct {
	Generation uint64               `json:"generation"`
	Total      int                  `json:"total"`
	ByType     map[ConflictType]int `json:"by_type"`
	BySeverity map[Severity]int     `json:"by_severity"`
}

// ConflictFilter narrows a report listing.
type ConflictFilter struct {
	Type     ConflictType
	Severity Severity
}

// CoScheduleDecision is the outcome of evaluating a group collision.
type CoScheduleDecision struct {
	Allowed    bool   `json:"allowed"`
	Rule       string `json:"rule"`
	RuleNumber int    `json:"rule_number"`
	Reason     string `json:"reason"`
}
