package service

import "github.com/noah-isme/sma-timetable-api/internal/models"

func theorySession(code, teacherID, roomID, group, day, slot string) models.Session {
	return models.Session{
		ScheduleType:     models.ScheduleTypeTheory,
		Day:              day,
		TimeSlot:         slot,
		TeacherID:        teacherID,
		TeacherName:      "Teacher " + teacherID,
		RoomID:           roomID,
		RoomNumber:       "Room " + roomID,
		GroupName:        group,
		CourseCode:       code,
		CourseInstanceID: code + "-" + teacherID,
	}
}

func labSession(code, teacherID, roomID, group, day, labCode, labRange string) models.Session {
	return models.Session{
		ScheduleType:     models.ScheduleTypeLab,
		Day:              day,
		SessionName:      labCode,
		TimeRange:        labRange,
		TeacherID:        teacherID,
		TeacherName:      "Teacher " + teacherID,
		RoomID:           roomID,
		RoomNumber:       "Lab " + roomID,
		GroupName:        group,
		CourseCode:       code,
		CourseInstanceID: code + "-" + teacherID,
	}
}

func loadedDirectory(lab, theory []models.Session) *SessionDirectory {
	dir := NewSessionDirectory(0)
	dir.Load(lab, theory)
	return dir
}

func conflictsOfType(conflicts []models.Conflict, kind models.ConflictType) []models.Conflict {
	out := make([]models.Conflict, 0)
	for _, c := range conflicts {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}
