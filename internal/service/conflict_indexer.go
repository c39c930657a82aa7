package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
)

type slotKey struct {
	entity  string
	day     string
	timeKey string
}

// slotIndex is an insertion-ordered multimap from slot key to sessions.
type slotIndex struct {
	entries map[slotKey][]models.IndexedSession
	order   []slotKey
}

func newSlotIndex() *slotIndex {
	return &slotIndex{entries: make(map[slotKey][]models.IndexedSession)}
}

func (x *slotIndex) add(entity string, item models.IndexedSession) {
	if entity == "" {
		return
	}
	key := slotKey{entity: entity, day: timeslot.NormalizeDay(item.Session.Day), timeKey: TimeKey(item.Session)}
	if _, ok := x.entries[key]; !ok {
		x.order = append(x.order, key)
	}
	x.entries[key] = append(x.entries[key], item)
}

func (x *slotIndex) each(fn func(key slotKey, items []models.IndexedSession)) {
	for _, key := range x.order {
		fn(key, x.entries[key])
	}
}

// IndexResult holds every finding of one indexing pass.
type IndexResult struct {
	TeacherConflicts   []models.Conflict
	RoomConflicts      []models.Conflict
	GroupConflicts     []models.Conflict
	MixedOverlaps      []models.Conflict
	CapacityViolations []models.Conflict
	CoScheduled        int
}

// All concatenates the findings in report order.
func (r IndexResult) All() []models.Conflict {
	out := make([]models.Conflict, 0, len(r.TeacherConflicts)+len(r.RoomConflicts)+len(r.GroupConflicts)+len(r.MixedOverlaps)+len(r.CapacityViolations))
	out = append(out, r.TeacherConflicts...)
	out = append(out, r.RoomConflicts...)
	out = append(out, r.GroupConflicts...)
	out = append(out, r.MixedOverlaps...)
	out = append(out, r.CapacityViolations...)
	return out
}

// ConflictIndexer finds teacher, room, group and capacity conflicts across the directory.
type ConflictIndexer struct {
	evaluator *CoScheduleEvaluator
	logger    *zap.Logger
}

// NewConflictIndexer constructs an indexer using the given evaluator for group collisions.
func NewConflictIndexer(evaluator *CoScheduleEvaluator, logger *zap.Logger) *ConflictIndexer {
	if evaluator == nil {
		evaluator = NewCoScheduleEvaluator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictIndexer{evaluator: evaluator, logger: logger}
}

// Index scans the directory once. Group collisions allowed by the evaluator are
// stamped on the directory sessions rather than reported.
func (x *ConflictIndexer) Index(dir *SessionDirectory) IndexResult {
	indexed := dir.Indexed()
	teachers := newSlotIndex()
	rooms := newSlotIndex()
	groups := newSlotIndex()
	for _, item := range indexed {
		teachers.add(item.Session.TeacherID, item)
		rooms.add(item.Session.RoomID, item)
		groups.add(item.Session.GroupName, item)
	}

	result := IndexResult{
		TeacherConflicts:   make([]models.Conflict, 0),
		RoomConflicts:      make([]models.Conflict, 0),
		GroupConflicts:     make([]models.Conflict, 0),
		MixedOverlaps:      make([]models.Conflict, 0),
		CapacityViolations: make([]models.Conflict, 0),
	}

	teacherPairs := make(pairSet)
	teachers.each(func(key slotKey, items []models.IndexedSession) {
		if len(items) < 2 {
			return
		}
		teacherPairs.addAll(items)
		result.TeacherConflicts = append(result.TeacherConflicts, teacherConflict(items, key.timeKey))
	})
	for _, pair := range crossTypeOverlaps(indexed, func(s models.Session) string { return s.TeacherID }) {
		if teacherPairs.has(pair) {
			continue
		}
		teacherPairs.addAll(pair)
		conflict := teacherConflict(pair, TimeKey(pair[0].Session)+" / "+TimeKey(pair[1].Session))
		conflict.Details["cross_type"] = true
		result.TeacherConflicts = append(result.TeacherConflicts, conflict)
	}

	reported := make(map[string]struct{})
	roomPairs := make(pairSet)
	rooms.each(func(key slotKey, items []models.IndexedSession) {
		if len(items) < 2 {
			return
		}
		reported[indexSetKey(items)] = struct{}{}
		roomPairs.addAll(items)
		result.RoomConflicts = append(result.RoomConflicts, roomConflict(items, key.timeKey))
	})
	for _, clash := range dir.Registry().Clashes() {
		setKey := indexSetKey(clash.Occupants)
		if _, ok := reported[setKey]; ok {
			continue
		}
		reported[setKey] = struct{}{}
		roomPairs.addAll(clash.Occupants)
		conflict := roomConflict(clash.Occupants, clash.Slot)
		conflict.Details["sub_slot"] = clash.Slot
		conflict.Details["cross_type"] = mixedTypes(clash.Occupants)
		result.RoomConflicts = append(result.RoomConflicts, conflict)
	}
	// sub-slot labels miss theory slots that straddle a lab sub-slot boundary
	for _, pair := range crossTypeOverlaps(indexed, func(s models.Session) string { return s.RoomID }) {
		if roomPairs.has(pair) {
			continue
		}
		roomPairs.addAll(pair)
		conflict := roomConflict(pair, TimeKey(pair[0].Session)+" / "+TimeKey(pair[1].Session))
		conflict.Details["cross_type"] = true
		result.RoomConflicts = append(result.RoomConflicts, conflict)
	}

	groups.each(func(key slotKey, items []models.IndexedSession) {
		if len(items) < 2 || distinctInstances(items) < 2 {
			return
		}
		sessions := make([]models.Session, len(items))
		for i, item := range items {
			sessions[i] = item.Session
		}
		decision := x.evaluator.Evaluate(sessions)
		if decision.Allowed {
			for _, item := range items {
				dir.Annotate(item.Index, func(s *models.Session) { stampSession(s, decision) })
			}
			result.CoScheduled++
			x.logger.Debug("co-scheduling allowed",
				zap.String("group", key.entity),
				zap.String("day", key.day),
				zap.String("time", key.timeKey),
				zap.String("rule", decision.Rule),
			)
			return
		}
		first := items[0].Session
		result.GroupConflicts = append(result.GroupConflicts, models.Conflict{
			Type:     models.ConflictGroup,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Group %s has %d courses at the same time", first.GroupName, len(items)),
			Sessions: items,
			Details: map[string]any{
				"group":                first.GroupName,
				"day":                  first.Day,
				"time":                 key.timeKey,
				"courses":              newCoScheduleGroup(sessions).UniqueCodes,
				"conflicting_sessions": len(items),
				"reason":               decision.Reason,
				"rule":                 decision.Rule,
			},
		})
	})

	for _, pair := range crossTypeOverlaps(indexed, func(s models.Session) string { return s.GroupName }) {
		result.MixedOverlaps = append(result.MixedOverlaps, mixedOverlapConflict(pair))
	}

	for _, item := range indexed {
		if conflict, ok := capacityConflict(item); ok {
			result.CapacityViolations = append(result.CapacityViolations, conflict)
		}
	}
	return result
}

func teacherConflict(items []models.IndexedSession, timeKey string) models.Conflict {
	first := items[0].Session
	return models.Conflict{
		Type:     models.ConflictTeacher,
		Severity: models.SeverityHigh,
		Message:  fmt.Sprintf("Teacher %s has %d sessions at the same time", first.TeacherName, len(items)),
		Sessions: items,
		Details: map[string]any{
			"teacher":              first.TeacherName,
			"day":                  first.Day,
			"time":                 timeKey,
			"conflicting_sessions": len(items),
		},
	}
}

func mixedOverlapConflict(pair []models.IndexedSession) models.Conflict {
	first, second := pair[0].Session, pair[1].Session
	return models.Conflict{
		Type:     models.ConflictGroupMixedOverlap,
		Severity: models.SeverityHigh,
		Message: fmt.Sprintf("Group %s: %s session %s overlaps with %s session %s",
			first.GroupName, first.ScheduleType, first.CourseCode, second.ScheduleType, second.CourseCode),
		Sessions: pair,
		Details: map[string]any{
			"rule":     "same_group_session_overlap",
			"group":    first.GroupName,
			"day":      first.Day,
			"session1": fmt.Sprintf("%s (%s)", first.CourseCode, first.ScheduleType),
			"session2": fmt.Sprintf("%s (%s)", second.CourseCode, second.ScheduleType),
			"reason":   "Same group cannot have overlapping sessions of different types",
		},
	}
}

type entityDay struct {
	entity string
	day    string
}

// crossTypeOverlaps returns lab/theory pairs that share an entity and a day and
// whose intervals overlap. Their time keys never match, so the slot indexes miss them.
func crossTypeOverlaps(items []models.IndexedSession, entityOf func(models.Session) string) [][]models.IndexedSession {
	buckets := make(map[entityDay][]models.IndexedSession)
	order := make([]entityDay, 0)
	for _, item := range items {
		entity := entityOf(item.Session)
		if entity == "" {
			continue
		}
		key := entityDay{entity: entity, day: timeslot.NormalizeDay(item.Session.Day)}
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], item)
	}

	pairs := make([][]models.IndexedSession, 0)
	for _, key := range order {
		members := buckets[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.Session.IsLab() == b.Session.IsLab() || !SameTime(a.Session, b.Session) {
					continue
				}
				if b.Session.IsLab() {
					a, b = b, a
				}
				pairs = append(pairs, []models.IndexedSession{a, b})
			}
		}
	}
	return pairs
}

// pairSet records which session pairs an earlier finding already covers.
type pairSet map[[2]int]struct{}

func orderedPair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (p pairSet) addAll(items []models.IndexedSession) {
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			p[orderedPair(items[i].Index, items[j].Index)] = struct{}{}
		}
	}
}

func (p pairSet) has(pair []models.IndexedSession) bool {
	_, ok := p[orderedPair(pair[0].Index, pair[1].Index)]
	return ok
}

func roomConflict(items []models.IndexedSession, timeKey string) models.Conflict {
	first := items[0].Session
	return models.Conflict{
		Type:     models.ConflictRoom,
		Severity: models.SeverityHigh,
		Message:  fmt.Sprintf("Room %s has %d sessions at the same time", first.RoomNumber, len(items)),
		Sessions: items,
		Details: map[string]any{
			"room":                 first.RoomNumber,
			"day":                  first.Day,
			"time":                 timeKey,
			"conflicting_sessions": len(items),
		},
	}
}

func capacityConflict(item models.IndexedSession) (models.Conflict, bool) {
	s := item.Session
	if s.StudentCount <= 0 || s.Capacity <= 0 || s.StudentCount <= s.Capacity {
		return models.Conflict{}, false
	}
	return models.Conflict{
		Type:     models.ConflictCapacity,
		Severity: models.SeverityMedium,
		Message:  fmt.Sprintf("Room %s capacity exceeded (%d/%d)", s.RoomNumber, s.StudentCount, s.Capacity),
		Sessions: []models.IndexedSession{item},
		Details: map[string]any{
			"room":     s.RoomNumber,
			"capacity": s.Capacity,
			"students": s.StudentCount,
			"overflow": s.StudentCount - s.Capacity,
		},
	}, true
}

func distinctInstances(items []models.IndexedSession) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.Session.CourseInstanceID] = struct{}{}
	}
	return len(seen)
}

func mixedTypes(items []models.IndexedSession) bool {
	lab, theory := false, false
	for _, item := range items {
		if item.Session.IsLab() {
			lab = true
		} else {
			theory = true
		}
	}
	return lab && theory
}

func indexSetKey(items []models.IndexedSession) string {
	indices := make([]int, len(items))
	for i, item := range items {
		indices[i] = item.Index
	}
	sort.Ints(indices)
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
