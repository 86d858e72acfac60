package service

import (
	"context"
	"fmt"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
	"github.com/deens-academy/timetable-api/pkg/export"
)

type gridReader interface {
	GetGrid(ctx context.Context, classSection string) (models.Grid, error)
}

// ExportService renders a class section's weekly grid as PDF or CSV.
type ExportService struct {
	grids gridReader
	pdf   *export.PDFExporter
	csv   *export.CSVExporter
}

// NewExportService constructs ExportService.
func NewExportService(grids gridReader) *ExportService {
	return &ExportService{
		grids: grids,
		pdf:   export.NewPDFExporter(),
		csv:   export.NewCSVExporter(),
	}
}

// ExportResult carries rendered bytes with their content type.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Timetable renders the grid in the requested format ("pdf" or "csv").
// Rows are periods, columns are weekdays.
func (s *ExportService) Timetable(ctx context.Context, classSection, format string) (*ExportResult, error) {
	grid, err := s.grids.GetGrid(ctx, classSection)
	if err != nil {
		return nil, err
	}

	dataset := buildTimetableDataset(grid)

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s.csv", classSection),
			Data:        data,
		}, nil
	case "", "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Weekly Timetable - %s", classSection))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s.pdf", classSection),
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
}

func buildTimetableDataset(grid models.Grid) export.Dataset {
	headers := []string{"Period"}
	for day := models.MinDay; day <= models.MaxDay; day++ {
		headers = append(headers, models.WeekdayName(day))
	}

	rows := make([]map[string]string, 0, models.MaxPeriod)
	for period := models.MinPeriod; period <= models.MaxPeriod; period++ {
		row := map[string]string{"Period": fmt.Sprintf("Period %d", period)}
		for day := models.MinDay; day <= models.MaxDay; day++ {
			if entry, ok := grid.Entry(day, period); ok {
				row[models.WeekdayName(day)] = entry.SubjectName
			} else {
				row[models.WeekdayName(day)] = ""
			}
		}
		rows = append(rows, row)
	}

	return export.Dataset{Headers: headers, Rows: rows}
}
