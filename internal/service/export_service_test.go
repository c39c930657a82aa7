package service

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(data export.Dataset, title string) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	svc := NewExportService(newTimetableFixture(t, nil, nil), nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportConflictsCSV(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.ExportConflicts("", models.ConflictFilter{})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "timetable_conflicts_g"))
	assert.True(t, strings.HasSuffix(file.Filename, "_20240304_100000.csv"))
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "type,severity,message,sessions,rule,reason", lines[0])
	assert.Contains(t, lines[1], string(models.ConflictDuplicateSessions))
	assert.Contains(t, lines[1], "MA101")
}

func TestExportSessionsXLSXAndPDF(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.ExportSessions("XLSX", "")
	require.NoError(t, err)
	assert.Equal(t, contentTypes[FormatXLSX], file.ContentType)
	assert.NotEmpty(t, file.Data)

	file, err = svc.ExportSessions(FormatPDF, "CS101")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.ExportSessions("docx", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestExportWrapsRenderFailure(t *testing.T) {
	svc := NewExportService(newTimetableFixture(t, nil, nil), nil, nil, failingRenderer{}, nil)

	_, err := svc.ExportConflicts(FormatPDF, models.ConflictFilter{})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestExportBeforeLoadReturnsNotLoaded(t *testing.T) {
	svc := NewExportService(NewTimetableService(nil, nil, nil, nil, nil, nil, TimetableConfig{}), nil, nil, nil, nil)

	_, err := svc.ExportConflicts(FormatCSV, models.ConflictFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotLoaded.Code, appErrors.FromError(err).Code)
}
