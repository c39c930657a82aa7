package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var contentTypes = map[string]string{
	FormatCSV:  "text/csv",
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type timetableSource interface {
	Conflicts(filter models.ConflictFilter) ([]models.Conflict, error)
	SearchSessions(query string) ([]models.IndexedSession, error)
	Generation() uint64
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders conflict and session listings as downloadable files.
type ExportService struct {
	source timetableSource
	csv    csvRenderer
	pdf    titledRenderer
	xlsx   titledRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(source timetableSource, logger *zap.Logger, csv csvRenderer, pdf, xlsx titledRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, xlsx: xlsx, logger: logger, now: time.Now}
}

var conflictHeaders = []string{"type", "severity", "message", "sessions", "rule", "reason"}

// ExportConflicts renders the current conflict report, most severe first.
func (s *ExportService) ExportConflicts(format string, filter models.ConflictFilter) (*ExportFile, error) {
	conflicts, err := s.source.Conflicts(filter)
	if err != nil {
		return nil, err
	}
	SortConflicts(conflicts)
	dataset := export.Dataset{Headers: conflictHeaders, Rows: make([]map[string]string, 0, len(conflicts))}
	for _, conflict := range conflicts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"type":     string(conflict.Type),
			"severity": string(conflict.Severity),
			"message":  conflict.Message,
			"sessions": describeSessions(conflict.Sessions),
			"rule":     detailString(conflict.Details, "rule"),
			"reason":   detailString(conflict.Details, "reason"),
		})
	}
	return s.render(format, "conflicts", "Timetable Conflicts", dataset)
}

var sessionHeaders = []string{
	"index", "schedule_type", "day", "time", "course_code", "course_name", "teacher",
	"room", "group", "students", "capacity", "co_scheduled",
}

// ExportSessions renders every session matching query.
func (s *ExportService) ExportSessions(format, query string) (*ExportFile, error) {
	sessions, err := s.source.SearchSessions(query)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: sessionHeaders, Rows: make([]map[string]string, 0, len(sessions))}
	for _, entry := range sessions {
		session := entry.Session
		dataset.Rows = append(dataset.Rows, map[string]string{
			"index":         strconv.Itoa(entry.Index),
			"schedule_type": string(session.ScheduleType),
			"day":           session.Day,
			"time":          TimeKey(session),
			"course_code":   session.CourseCode,
			"course_name":   session.CourseName,
			"teacher":       session.TeacherName,
			"room":          session.RoomNumber,
			"group":         session.GroupName,
			"students":      strconv.Itoa(session.StudentCount),
			"capacity":      strconv.Itoa(session.Capacity),
			"co_scheduled":  session.CoScheduleInfo,
		})
	}
	return s.render(format, "sessions", "Timetable Sessions", dataset)
}

func (s *ExportService) render(format, name, title string, dataset export.Dataset) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	var (
		payload []byte
		err     error
	)
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(dataset)
	case FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	case FormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("render export failed", zap.String("format", format), zap.String("dataset", name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("timetable_%s_g%d_%s.%s", name, s.source.Generation(), s.now().UTC().Format("20060102_150405"), format)
	return &ExportFile{Filename: filename, ContentType: contentTypes[format], Data: payload}, nil
}

func describeSessions(sessions []models.IndexedSession) string {
	parts := make([]string, 0, len(sessions))
	for _, entry := range sessions {
		s := entry.Session
		position := fmt.Sprintf("#%d", entry.Index)
		if entry.Index == RemovedSessionIndex {
			position = "removed"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s %s %s", position, s.CourseCode, s.Day, TimeKey(s), s.RoomNumber))
	}
	return strings.Join(parts, "; ")
}

func detailString(details map[string]any, key string) string {
	if details == nil {
		return ""
	}
	if value, ok := details[key]; ok && value != nil {
		return fmt.Sprint(value)
	}
	return ""
}
