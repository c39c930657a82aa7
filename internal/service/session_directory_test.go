package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestSessionDirectoryLoadConcatenatesLabFirst(t *testing.T) {
	lab := []models.Session{labSession("CS201", "T1", "L-1", "CSE_S3", "monday", "L1", "8:00 - 9:40")}
	theory := []models.Session{theorySession("CS101", "T2", "R1", "CSE_S3", "monday", "9:00 - 9:50")}
	theory[0].ScheduleType = ""

	dir := loadedDirectory(lab, theory)

	require.Equal(t, 2, dir.Len())
	first, _ := dir.At(0)
	second, _ := dir.At(1)
	assert.Equal(t, "CS201", first.CourseCode)
	assert.Equal(t, models.ScheduleTypeTheory, second.ScheduleType)
	assert.NotEmpty(t, first.ID)
	assert.Len(t, dir.LabSessions(), 1)
	assert.Len(t, dir.TheorySessions(), 1)
	assert.Equal(t, uint64(1), dir.Generation())
}

func TestTimeKeyAndSameTime(t *testing.T) {
	lab := labSession("CS201", "T1", "L-1", "G1", "monday", "L2", "")
	theory := theorySession("CS101", "T2", "R1", "G1", "monday", "10:00 - 10:50")
	later := theorySession("CS102", "T2", "R1", "G1", "monday", "12:00 - 12:50")

	assert.Equal(t, "L2", TimeKey(lab))
	lab.TimeRange = "10:00 - 11:40"
	assert.Equal(t, "10:00 - 11:40", TimeKey(lab))
	assert.Equal(t, "10:00 - 10:50", TimeKey(theory))

	assert.True(t, SameTime(lab, theory))
	assert.False(t, SameTime(lab, later))
	assert.True(t, SameTime(theory, theory))
}

func TestSessionDirectoryEntities(t *testing.T) {
	s1 := theorySession("CS101", "T1", "R1", "CSE_S3", "monday", "9:00 - 9:50")
	s1.DepartmentName = "CSE"
	s1.DayPattern = "monday-friday"
	s2 := theorySession("MA101", "T1", "R2", "MECH_S1", "tuesday", "9:00 - 9:50")
	s2.StudentDept = "MECH"
	s2.Capacity = 70
	s3 := labSession("CS201", "T2", "CSE-LAB-1", "CSE_S3", "wed", "L1", "8:00 - 9:40")
	s3.RoomNumber = "CSE Lab 1"

	dir := loadedDirectory([]models.Session{s3}, []models.Session{s1, s2})
	entities := dir.Entities()

	require.Len(t, entities.Teachers, 2)
	var t1 models.Teacher
	for _, teacher := range entities.Teachers {
		if teacher.ID == "T1" {
			t1 = teacher
		}
	}
	assert.True(t, t1.CrossDepartment)
	assert.Equal(t, []string{"CSE", "MECH"}, t1.Departments)

	room, ok := dir.Room("R1")
	require.True(t, ok)
	assert.Equal(t, DefaultRoomCapacity, room.Capacity)
	assert.Equal(t, models.RoomTypeTheory, room.Type)

	room, ok = dir.Room("R2")
	require.True(t, ok)
	assert.Equal(t, 70, room.Capacity)

	lab, ok := dir.Room("CSE-LAB-1")
	require.True(t, ok)
	assert.Equal(t, models.RoomTypeLab, lab.Type)

	assert.Equal(t, []string{"CSE_S3", "MECH_S1"}, entities.Groups)
	assert.Equal(t, "monday-friday", entities.DepartmentDayPatterns["CSE"])
}

func TestSessionDirectoryViewsRebuildAfterMutation(t *testing.T) {
	s1 := theorySession("CS101", "T1", "R1", "G1", "monday", "9:00 - 9:50")
	dir := loadedDirectory(nil, []models.Session{s1})
	_, ok := dir.Room("R9")
	assert.False(t, ok)

	moved := s1
	moved.RoomID = "R9"
	moved.RoomNumber = "Room 9"
	require.True(t, dir.Replace(0, moved))
	assert.Equal(t, uint64(2), dir.Generation())

	_, ok = dir.Room("R9")
	assert.True(t, ok)
	_, ok = dir.Room("R1")
	assert.False(t, ok)
	assert.False(t, dir.Replace(5, moved))
}

func TestSessionDirectoryRemoveIndicesIsStable(t *testing.T) {
	sessions := []models.Session{
		theorySession("A", "T1", "R1", "G1", "monday", "8:00 - 8:50"),
		theorySession("B", "T1", "R1", "G1", "monday", "9:00 - 9:50"),
		theorySession("C", "T1", "R1", "G1", "monday", "10:00 - 10:50"),
		theorySession("D", "T1", "R1", "G1", "monday", "11:00 - 11:50"),
	}
	dir := loadedDirectory(nil, sessions)
	removed := dir.RemoveIndices([]int{2, 0, 0, 42})

	assert.Equal(t, 2, removed)
	codes := make([]string, 0)
	for _, s := range dir.Sessions() {
		codes = append(codes, s.CourseCode)
	}
	assert.Equal(t, []string{"B", "D"}, codes)
}

func TestSessionDirectoryAnnotateKeepsGeneration(t *testing.T) {
	dir := loadedDirectory(nil, []models.Session{theorySession("A", "T1", "R1", "G1", "monday", "8:00 - 8:50")})
	before := dir.Generation()
	dir.Annotate(0, func(s *models.Session) { s.IsCoScheduled = true })

	s, _ := dir.At(0)
	assert.True(t, s.IsCoScheduled)
	assert.Equal(t, before, dir.Generation())
}

func TestSessionDirectorySearch(t *testing.T) {
	s1 := theorySession("CS101", "T1", "R1", "CSE_S3", "monday", "8:00 - 8:50")
	s1.CourseName = "Data Structures"
	s2 := theorySession("MA101", "T2", "R2", "MECH_S1", "monday", "8:00 - 8:50")

	dir := loadedDirectory(nil, []models.Session{s1, s2})

	results := dir.Search("data")
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)

	results = dir.Search("mech")
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Index)

	assert.Len(t, dir.Search("room"), 2)
	assert.Empty(t, dir.Search("physics"))
}

func TestRoomTypeFor(t *testing.T) {
	assert.Equal(t, models.RoomTypeLab, RoomTypeFor("Computer Centre"))
	assert.Equal(t, models.RoomTypeLab, RoomTypeFor("IT-204"))
	assert.Equal(t, models.RoomTypeTheory, RoomTypeFor("A-101"))
	assert.Equal(t, models.RoomTypeUnknown, RoomTypeFor(""))
}

func TestSessionDirectoryRoomKeepsDeclaredCapacity(t *testing.T) {
	declared := theorySession("CS101", "T1", "R1", "CSE_S3", "monday", "9:00 - 9:50")
	declared.Capacity = 60
	undeclared := theorySession("CS102", "T2", "R1", "CSE_S3", "tuesday", "9:00 - 9:50")

	dir := loadedDirectory(nil, []models.Session{declared, undeclared})

	room, ok := dir.Room("R1")
	require.True(t, ok)
	assert.Equal(t, 60, room.Capacity)
}

func TestSessionDirectoryTeachersDoNotShareCachedDepartments(t *testing.T) {
	s1 := theorySession("CS101", "T1", "R1", "CSE_S3", "monday", "9:00 - 9:50")
	s1.DepartmentName = "CSE"
	s2 := theorySession("MA101", "T1", "R2", "MECH_S1", "tuesday", "9:00 - 9:50")
	s2.DepartmentName = "MECH"
	dir := loadedDirectory(nil, []models.Session{s1, s2})

	first := dir.Teachers()
	require.Len(t, first, 1)
	first[0].Departments[0] = "XXX"

	assert.Equal(t, []string{"CSE", "MECH"}, dir.Teachers()[0].Departments)
}
