package service

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timeslot"
)

// DefaultRoomCapacity applies to rooms whose sessions never declare a capacity.
const DefaultRoomCapacity = 35

var labRoomKeywords = []string{"lab", "comp", "cse", "it"}

// TimeKey returns the canonical temporal token of a session: the slot label for
// theory sessions and the time range (or lab code) for lab sessions.
func TimeKey(session models.Session) string {
	if session.IsLab() {
		if session.TimeRange != "" {
			return session.TimeRange
		}
		return session.SessionName
	}
	return session.TimeSlot
}

// SameTime reports whether two sessions occupy the same instant. The day is not compared.
func SameTime(a, b models.Session) bool {
	left, right := TimeKey(a), TimeKey(b)
	if left != "" && left == right {
		return true
	}
	return timeslot.OverlapLabels(left, right)
}

// SameDay compares days after normalisation.
func SameDay(a, b models.Session) bool {
	return timeslot.NormalizeDay(a.Day) == timeslot.NormalizeDay(b.Day)
}

// RoomTypeFor classifies a room from keywords in its number.
func RoomTypeFor(roomNumber string) models.RoomType {
	if strings.TrimSpace(roomNumber) == "" {
		return models.RoomTypeUnknown
	}
	room := strings.ToLower(roomNumber)
	for _, keyword := range labRoomKeywords {
		if strings.Contains(room, keyword) {
			return models.RoomTypeLab
		}
	}
	return models.RoomTypeTheory
}

// directoryView holds everything derived from the session list at one generation.
type directoryView struct {
	generation  uint64
	teachers    map[string]*models.Teacher
	teacherIDs  []string
	rooms       map[string]models.Room
	roomIDs     []string
	groups      []string
	dayPatterns map[string]string
	registry    *RoomRegistry
}

// SessionDirectory owns the canonical session list. Every mutation bumps the
// generation; derived views are rebuilt lazily when their generation is stale.
type SessionDirectory struct {
	sessions        []models.Session
	generation      uint64
	defaultCapacity int
	view            *directoryView
}

// NewSessionDirectory constructs an empty directory.
func NewSessionDirectory(defaultCapacity int) *SessionDirectory {
	if defaultCapacity <= 0 {
		defaultCapacity = DefaultRoomCapacity
	}
	return &SessionDirectory{defaultCapacity: defaultCapacity}
}

// Load replaces the directory contents with lab sessions followed by theory sessions.
func (d *SessionDirectory) Load(lab, theory []models.Session) {
	sessions := make([]models.Session, 0, len(lab)+len(theory))
	for _, s := range lab {
		if s.ScheduleType == "" {
			s.ScheduleType = models.ScheduleTypeLab
		}
		sessions = append(sessions, withID(s))
	}
	for _, s := range theory {
		if s.ScheduleType == "" {
			s.ScheduleType = models.ScheduleTypeTheory
		}
		sessions = append(sessions, withID(s))
	}
	d.sessions = sessions
	d.generation++
}

func withID(s models.Session) models.Session {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return s
}

// Generation identifies the current version of the session list.
func (d *SessionDirectory) Generation() uint64 {
	return d.generation
}

// Len returns the number of sessions.
func (d *SessionDirectory) Len() int {
	return len(d.sessions)
}

// Loaded reports whether Load has been called at least once.
func (d *SessionDirectory) Loaded() bool {
	return d.generation > 0
}

// At returns the session at index.
func (d *SessionDirectory) At(index int) (models.Session, bool) {
	if index < 0 || index >= len(d.sessions) {
		return models.Session{}, false
	}
	return d.sessions[index], true
}

// Sessions returns a copy of the full list.
func (d *SessionDirectory) Sessions() []models.Session {
	out := make([]models.Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Indexed returns every session paired with its index.
func (d *SessionDirectory) Indexed() []models.IndexedSession {
	out := make([]models.IndexedSession, len(d.sessions))
	for i, s := range d.sessions {
		out[i] = models.IndexedSession{Index: i, Session: s}
	}
	return out
}

// LabSessions is the lab sub-list in directory order.
func (d *SessionDirectory) LabSessions() []models.Session {
	return d.filter(func(s models.Session) bool { return s.IsLab() })
}

// TheorySessions is the theory sub-list in directory order.
func (d *SessionDirectory) TheorySessions() []models.Session {
	return d.filter(func(s models.Session) bool { return !s.IsLab() })
}

func (d *SessionDirectory) filter(keep func(models.Session) bool) []models.Session {
	out := make([]models.Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// RemoveIndices drops the given positions, preserving the order of survivors.
func (d *SessionDirectory) RemoveIndices(indices []int) int {
	if len(indices) == 0 {
		return 0
	}
	drop := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(d.sessions) {
			drop[idx] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := make([]models.Session, 0, len(d.sessions)-len(drop))
	for i, s := range d.sessions {
		if _, ok := drop[i]; !ok {
			kept = append(kept, s)
		}
	}
	d.sessions = kept
	d.generation++
	return len(drop)
}

// Replace swaps the session at index for the provided one.
func (d *SessionDirectory) Replace(index int, session models.Session) bool {
	if index < 0 || index >= len(d.sessions) {
		return false
	}
	if session.ID == "" {
		session.ID = d.sessions[index].ID
	}
	d.sessions[index] = withID(session)
	d.generation++
	return true
}

// Annotate applies audit stamps to a session in place. Stamps do not feed any
// derived view, so the generation is left untouched.
func (d *SessionDirectory) Annotate(index int, stamp func(*models.Session)) {
	if index < 0 || index >= len(d.sessions) || stamp == nil {
		return
	}
	stamp(&d.sessions[index])
}

// Search matches query case-insensitively against course, teacher, room and group fields.
func (d *SessionDirectory) Search(query string) []models.IndexedSession {
	needle := strings.ToLower(strings.TrimSpace(query))
	results := make([]models.IndexedSession, 0)
	for i, s := range d.sessions {
		if needle == "" || matchesQuery(s, needle) {
			results = append(results, models.IndexedSession{Index: i, Session: s})
		}
	}
	return results
}

func matchesQuery(s models.Session, needle string) bool {
	for _, field := range []string{s.CourseCode, s.CourseName, s.TeacherName, s.RoomNumber, s.GroupName} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Room returns the derived metadata for a room id.
func (d *SessionDirectory) Room(id string) (models.Room, bool) {
	room, ok := d.current().rooms[id]
	return room, ok
}

// Rooms lists rooms sorted by number.
func (d *SessionDirectory) Rooms() []models.Room {
	view := d.current()
	rooms := make([]models.Room, 0, len(view.roomIDs))
	for _, id := range view.roomIDs {
		rooms = append(rooms, view.rooms[id])
	}
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms
}

// Teachers lists teachers sorted by name.
func (d *SessionDirectory) Teachers() []models.Teacher {
	view := d.current()
	teachers := make([]models.Teacher, 0, len(view.teacherIDs))
	for _, id := range view.teacherIDs {
		teacher := *view.teachers[id]
		teacher.Departments = append([]string(nil), teacher.Departments...)
		teachers = append(teachers, teacher)
	}
	sort.SliceStable(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })
	return teachers
}

// Entities returns every derived entity set.
func (d *SessionDirectory) Entities() models.Entities {
	view := d.current()
	patterns := make(map[string]string, len(view.dayPatterns))
	for k, v := range view.dayPatterns {
		patterns[k] = v
	}
	groups := make([]string, len(view.groups))
	copy(groups, view.groups)
	return models.Entities{
		Teachers:              d.Teachers(),
		Rooms:                 d.Rooms(),
		Groups:                groups,
		DepartmentDayPatterns: patterns,
	}
}

// Registry returns the room registry for the current generation.
func (d *SessionDirectory) Registry() *RoomRegistry {
	return d.current().registry
}

func (d *SessionDirectory) current() *directoryView {
	if d.view == nil || d.view.generation != d.generation {
		d.view = d.derive()
	}
	return d.view
}

func (d *SessionDirectory) derive() *directoryView {
	view := &directoryView{
		generation:  d.generation,
		teachers:    make(map[string]*models.Teacher),
		rooms:       make(map[string]models.Room),
		dayPatterns: make(map[string]string),
		registry:    NewRoomRegistry(),
	}
	seenGroups := make(map[string]struct{})
	teacherDepts := make(map[string]map[string]struct{})

	for i, s := range d.sessions {
		if s.TeacherID != "" && s.TeacherName != "" {
			if _, ok := view.teachers[s.TeacherID]; !ok {
				view.teachers[s.TeacherID] = &models.Teacher{ID: s.TeacherID, Name: s.TeacherName, StaffCode: s.StaffCode}
				view.teacherIDs = append(view.teacherIDs, s.TeacherID)
			}
		}
		if dept := s.Department(); s.TeacherID != "" && dept != "" {
			if teacherDepts[s.TeacherID] == nil {
				teacherDepts[s.TeacherID] = make(map[string]struct{})
			}
			teacherDepts[s.TeacherID][dept] = struct{}{}
		}
		if s.RoomID != "" && s.RoomNumber != "" {
			capacity := s.Capacity
			previous, seen := view.rooms[s.RoomID]
			if !seen {
				view.roomIDs = append(view.roomIDs, s.RoomID)
			}
			// the last declared capacity wins
			if capacity <= 0 {
				capacity = d.defaultCapacity
				if seen {
					capacity = previous.Capacity
				}
			}
			view.rooms[s.RoomID] = models.Room{
				ID:       s.RoomID,
				Number:   s.RoomNumber,
				Block:    s.Block,
				Type:     RoomTypeFor(s.RoomNumber),
				Capacity: capacity,
			}
		}
		if s.GroupName != "" {
			if _, ok := seenGroups[s.GroupName]; !ok {
				seenGroups[s.GroupName] = struct{}{}
				view.groups = append(view.groups, s.GroupName)
			}
		}
		if dept := s.Department(); dept != "" && s.DayPattern != "" {
			view.dayPatterns[dept] = s.DayPattern
		}
		view.registry.Register(i, s)
	}

	for id, depts := range teacherDepts {
		teacher, ok := view.teachers[id]
		if !ok {
			continue
		}
		teacher.Departments = make([]string, 0, len(depts))
		for dept := range depts {
			teacher.Departments = append(teacher.Departments, dept)
		}
		sort.Strings(teacher.Departments)
		teacher.CrossDepartment = len(depts) > 1
	}
	sort.Strings(view.groups)
	return view
}
