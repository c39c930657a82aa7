package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// sessionColumns lists the persisted session columns in table order.
var sessionColumns = []string{
	"id", "position", "schedule_type", "day", "time_slot", "session_name", "time_range",
	"teacher_id", "teacher_name", "staff_code", "room_id", "room_number", "block",
	"capacity", "student_count", "group_name", "course_code", "course_name", "course_instance_id",
	"department", "student_dept", "day_pattern", "is_batched", "session_info",
	"is_co_scheduled", "co_schedule_id", "co_schedule_info", "is_different_course_allowed",
}

type sessionRow struct {
	Position int `db:"position"`
	models.Session
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SessionRepository stores timetable sessions in PostgreSQL.
type SessionRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewSessionRepository builds the repository. metrics may be nil.
func NewSessionRepository(db *sqlx.DB, metrics queryObserver) *SessionRepository {
	return &SessionRepository{db: db, metrics: metrics}
}

func (r *SessionRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// LoadSessions returns lab and theory sessions, each in stored order.
func (r *SessionRepository) LoadSessions(ctx context.Context) ([]models.Session, []models.Session, error) {
	defer r.observe("timetable_sessions.load", time.Now())
	query := fmt.Sprintf("SELECT %s FROM timetable_sessions ORDER BY schedule_type ASC, position ASC", strings.Join(sessionColumns, ", "))
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, nil, fmt.Errorf("load timetable sessions: %w", err)
	}
	lab := make([]models.Session, 0)
	theory := make([]models.Session, 0)
	for _, row := range rows {
		if row.Session.IsLab() {
			lab = append(lab, row.Session)
			continue
		}
		theory = append(theory, row.Session)
	}
	return lab, theory, nil
}

// SaveSessions replaces the stored timetable in a single transaction.
func (r *SessionRepository) SaveSessions(ctx context.Context, lab []models.Session, theory []models.Session) (err error) {
	defer r.observe("timetable_sessions.save", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM timetable_sessions"); err != nil {
		return fmt.Errorf("clear timetable sessions: %w", err)
	}

	placeholders := make([]string, len(sessionColumns))
	for i, column := range sessionColumns {
		placeholders[i] = ":" + column
	}
	insert := fmt.Sprintf("INSERT INTO timetable_sessions (%s) VALUES (%s)", strings.Join(sessionColumns, ", "), strings.Join(placeholders, ", "))

	write := func(sessions []models.Session, scheduleType models.ScheduleType) error {
		for i, session := range sessions {
			if session.ID == "" {
				session.ID = uuid.NewString()
			}
			if session.ScheduleType == "" {
				session.ScheduleType = scheduleType
			}
			if _, err := tx.NamedExecContext(ctx, insert, sessionRow{Position: i, Session: session}); err != nil {
				return fmt.Errorf("insert timetable session %s: %w", session.ID, err)
			}
		}
		return nil
	}
	if err = write(lab, models.ScheduleTypeLab); err != nil {
		return err
	}
	if err = write(theory, models.ScheduleTypeTheory); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save timetable: %w", err)
	}
	return nil
}
