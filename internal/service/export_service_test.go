package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type staticGridReader struct {
	grid models.Grid
}

func (s *staticGridReader) GetGrid(ctx context.Context, classSection string) (models.Grid, error) {
	return s.grid, nil
}

func exportFixtureGrid() models.Grid {
	grid := make(models.Grid)
	grid.Set(1, 1, models.GridEntry{SubjectID: "math", SubjectName: "Math"})
	grid.Set(3, 5, models.GridEntry{SubjectID: "science", SubjectName: "Science"})
	return grid
}

func TestExportServiceTimetableCSV(t *testing.T) {
	service := NewExportService(&staticGridReader{grid: exportFixtureGrid()})

	result, err := service.Timetable(context.Background(), "Grade 6 A", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable-Grade 6 A.csv", result.Filename)

	content := string(result.Data)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 9) // header plus eight periods
	assert.Equal(t, "Period,Monday,Tuesday,Wednesday,Thursday,Friday", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Math")
	assert.Contains(t, lines[5], "Science")
}

func TestExportServiceTimetablePDF(t *testing.T) {
	service := NewExportService(&staticGridReader{grid: exportFixtureGrid()})

	result, err := service.Timetable(context.Background(), "Grade 6 A", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))

	// Empty format defaults to PDF.
	result, err = service.Timetable(context.Background(), "Grade 6 A", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestExportServiceTimetableUnknownFormat(t *testing.T) {
	service := NewExportService(&staticGridReader{grid: exportFixtureGrid()})

	_, err := service.Timetable(context.Background(), "Grade 6 A", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBuildTimetableDataset(t *testing.T) {
	dataset := buildTimetableDataset(exportFixtureGrid())

	assert.Equal(t, []string{"Period", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, dataset.Headers)
	require.Len(t, dataset.Rows, 8)
	assert.Equal(t, "Math", dataset.Rows[0]["Monday"])
	assert.Equal(t, "", dataset.Rows[0]["Tuesday"])
	assert.Equal(t, "Science", dataset.Rows[4]["Wednesday"])
}
