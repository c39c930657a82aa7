package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"type", "severity", "message"},
		Rows: []map[string]string{
			{"type": "room_conflict", "severity": "high", "message": "Room A-101 double booked"},
			{"type": "capacity_violation", "severity": "medium"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "type,severity,message", lines[0])
	assert.Equal(t, "capacity_violation,medium,", lines[2])
}

func TestCSVExporterNeutralisesFormulaCells(t *testing.T) {
	data := Dataset{
		Headers: []string{"course", "note"},
		Rows: []map[string]string{
			{"course": "=HYPERLINK(\"x\")", "note": "-3"},
			{"course": "@SUM(A1)", "note": "+1 room short"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"'=HYPERLINK(""x"")",-3`, lines[1])
	assert.Equal(t, "'@SUM(A1),'+1 room short", lines[2])
}

func TestSafeCell(t *testing.T) {
	assert.Equal(t, "", SafeCell(""))
	assert.Equal(t, "CS101", SafeCell("CS101"))
	assert.Equal(t, "-2.5", SafeCell("-2.5"))
	assert.Equal(t, "'-cmd", SafeCell("-cmd"))
	assert.Equal(t, "'\tx", SafeCell("\tx"))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Conflicts")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFOrientationFollowsColumnCount(t *testing.T) {
	assert.Equal(t, "P", orientation(3))
	assert.Equal(t, "P", orientation(6))
	assert.Equal(t, "L", orientation(12))
}

func TestPDFColumnWidthsFillPrintableArea(t *testing.T) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	data := Dataset{
		Headers: []string{"id", "course_name"},
		Rows:    []map[string]string{{"id": "1", "course_name": "Introduction to Distributed Systems"}},
	}
	widths := columnWidths(pdf, data, 277)
	require.Len(t, widths, 2)
	assert.InDelta(t, 277, widths[0]+widths[1], 0.001)
	assert.Greater(t, widths[1], widths[0])
}

func TestPDFFitTruncatesLongValues(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 9)
	long := strings.Repeat("Advanced Topics ", 10)

	out := fit(pdf, long, 30)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(out), 30-pdfCellPadding)
	assert.Equal(t, "CS101", fit(pdf, "CS101", 30))
}

func TestPDFExporterPaginatesWideDatasets(t *testing.T) {
	headers := []string{"index", "course_code", "course_name", "session_type", "day", "time", "room", "capacity", "teacher", "teacher_id", "group", "student_count"}
	data := Dataset{Headers: headers}
	for i := 0; i < 120; i++ {
		row := make(map[string]string, len(headers))
		for _, h := range headers {
			row[h] = h
		}
		data.Rows = append(data.Rows, row)
	}
	out, err := NewPDFExporter().Render(data, "Sessions")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Regexp(t, `/Count [2-9]`, string(out))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Conflicts")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Conflicts"}, f.GetSheetList())
	value, err := f.GetCellValue("Conflicts", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Room A-101 double booked", value)
	value, err = f.GetCellValue("Conflicts", "A3")
	require.NoError(t, err)
	assert.Equal(t, "capacity_violation", value)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, sheetName(strings.Repeat("x", 40)), 31)
}
