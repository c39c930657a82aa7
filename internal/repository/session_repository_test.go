package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type observerStub struct {
	labels []string
}

func (o *observerStub) ObserveDBQuery(label string, duration time.Duration) {
	o.labels = append(o.labels, label)
}

func sessionValues(id string, position int, scheduleType, day, slot, session, timeRange string) []driver.Value {
	return []driver.Value{
		id, position, scheduleType, day, slot, session, timeRange,
		"T1", "Teacher One", "S01", "R1", "A-101", "A",
		60, 40, "CSE_S3", "CS101", "Data Structures", "CS101-1",
		"CSE", "", "monday-friday", false, "",
		false, "", "", false,
	}
}

func TestSessionRepositoryLoadSessionsSplitsByType(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	observer := &observerStub{}
	repo := NewSessionRepository(db, observer)

	rows := sqlmock.NewRows(sessionColumns).
		AddRow(sessionValues("lab-1", 0, "lab", "monday", "", "L1", "8:00 - 9:40")...).
		AddRow(sessionValues("th-1", 0, "theory", "monday", "9:00 - 9:50", "", "")...).
		AddRow(sessionValues("th-2", 1, "theory", "tuesday", "10:00 - 10:50", "", "")...)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_sessions ORDER BY schedule_type ASC, position ASC")).
		WillReturnRows(rows)

	lab, theory, err := repo.LoadSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, lab, 1)
	require.Len(t, theory, 2)
	assert.Equal(t, "L1", lab[0].SessionName)
	assert.Equal(t, "th-2", theory[1].ID)
	assert.Equal(t, 60, theory[0].Capacity)
	assert.Equal(t, []string{"timetable_sessions.load"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLoadSessionsError(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db, nil)

	mock.ExpectQuery("FROM timetable_sessions").WillReturnError(errors.New("connection reset"))

	_, _, err := repo.LoadSessions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load timetable sessions")
}

func TestSessionRepositorySaveSessionsReplacesRows(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_sessions")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lab := []models.Session{{SessionName: "L2", TimeRange: "10:00 - 11:40", CourseCode: "CS201"}}
	theory := []models.Session{{ID: "th-1", TimeSlot: "9:00 - 9:50", CourseCode: "CS101"}}
	require.NoError(t, repo.SaveSessions(context.Background(), lab, theory))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySaveSessionsRollsBack(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_sessions")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_sessions")).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.SaveSessions(context.Background(), nil, []models.Session{{TimeSlot: "9:00 - 9:50"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert timetable session")
	assert.NoError(t, mock.ExpectationsWereMet())
}
