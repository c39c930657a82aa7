package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
)

type duplicateKey struct {
	courseCode   string
	teacherID    string
	roomID       string
	day          string
	timeKey      string
	groupName    string
	scheduleType models.ScheduleType
}

func duplicateKeyOf(s models.Session) duplicateKey {
	return duplicateKey{
		courseCode:   s.CourseCode,
		teacherID:    s.TeacherID,
		roomID:       s.RoomID,
		day:          timeslot.NormalizeDay(s.Day),
		timeKey:      TimeKey(s),
		groupName:    s.GroupName,
		scheduleType: s.ScheduleType,
	}
}

// RemovedSessionIndex marks a duplicate-group member that Dedupe dropped.
const RemovedSessionIndex = -1

// DedupeResult carries the survivors, the removed positions and one warning per duplicate group.
// Conflict members cite positions in Kept; removed members carry RemovedSessionIndex and
// their input positions are listed in the "removed_indices" detail.
type DedupeResult struct {
	Kept      []models.Session
	Removed   []int
	Conflicts []models.Conflict
}

// Dedupe keeps the first record of every structural key group and marks the rest
// for removal. Survivors keep their relative order.
func Dedupe(sessions []models.Session) DedupeResult {
	groups := make(map[duplicateKey][]int)
	order := make([]duplicateKey, 0)
	for i, s := range sessions {
		key := duplicateKeyOf(s)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	removed := make(map[int]struct{})
	for _, key := range order {
		for _, idx := range groups[key][1:] {
			removed[idx] = struct{}{}
		}
	}

	result := DedupeResult{Conflicts: make([]models.Conflict, 0)}
	result.Kept = make([]models.Session, 0, len(sessions)-len(removed))
	keptIndex := make(map[int]int, len(sessions))
	for i, s := range sessions {
		if _, ok := removed[i]; ok {
			result.Removed = append(result.Removed, i)
			continue
		}
		keptIndex[i] = len(result.Kept)
		result.Kept = append(result.Kept, s)
	}

	for _, key := range order {
		indices := groups[key]
		if len(indices) < 2 {
			continue
		}
		first := sessions[indices[0]]
		members := make([]models.IndexedSession, 0, len(indices))
		members = append(members, models.IndexedSession{Index: keptIndex[indices[0]], Session: first})
		for _, idx := range indices[1:] {
			members = append(members, models.IndexedSession{Index: RemovedSessionIndex, Session: sessions[idx]})
		}
		removedIndices := make([]int, len(indices)-1)
		copy(removedIndices, indices[1:])
		result.Conflicts = append(result.Conflicts, models.Conflict{
			Type:     models.ConflictDuplicateSessions,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Found %d duplicate sessions: %s - %s", len(indices), first.CourseCode, first.TeacherName),
			Sessions: members,
			Details: map[string]any{
				"course":          first.CourseCode,
				"teacher":         first.TeacherName,
				"room":            first.RoomNumber,
				"time":            TimeKey(first),
				"day":             first.Day,
				"group":           first.GroupName,
				"duplicate_count": len(indices),
				"removed_indices": removedIndices,
				"action":          "Keep first instance, remove duplicates",
			},
		})
	}
	return result
}

// ResolveDuplicates dedupes the directory in place and returns the duplicate warnings.
func ResolveDuplicates(dir *SessionDirectory) ([]models.Conflict, int) {
	result := Dedupe(dir.sessions)
	if len(result.Removed) == 0 {
		return result.Conflicts, 0
	}
	return result.Conflicts, dir.RemoveIndices(result.Removed)
}
