package application

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/errors"
)

// Supported export formats
const (
	ExportFormatCSV   = "csv"
	ExportFormatJSON  = "json"
	ExportFormatExcel = "xlsx"
)

var exportHeader = []string{
	"lineId", "itemPositionId", "itemId", "itemName", "position",
	"expectedQty", "actualQty", "variance", "countedBy", "countedAt", "note",
}

var discrepancyHeader = []string{
	"discrepancyId", "lineId", "itemId", "type",
	"expectedQty", "actualQty", "variance", "resolution",
}

func renderExport(format string, assignment *domain.CountAssignment, discrepancies []*domain.Discrepancy, stats *domain.CountStatistics) (*ExportDTO, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case ExportFormatCSV:
		data, err = renderCSV(assignment, discrepancies)
		contentType = "text/csv"
	case ExportFormatJSON:
		data, err = renderJSON(assignment, discrepancies, stats)
		contentType = "application/json"
	case ExportFormatExcel:
		data, err = renderExcel(assignment, discrepancies, stats)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		return nil, errors.ErrValidation("pdf export is not supported, use csv, json or xlsx")
	default:
		return nil, errors.ErrValidation(fmt.Sprintf("invalid export format: %q", format))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	return &ExportDTO{
		AssignmentID: assignment.AssignmentID,
		Format:       format,
		FileName:     fmt.Sprintf("stocktake-%s.%s", assignment.AssignmentID, format),
		ContentType:  contentType,
		Data:         data,
	}, nil
}

func lineRow(line *domain.CountLine) []string {
	actual := ""
	countedAt := ""
	if line.ActualQty != nil {
		actual = strconv.Itoa(*line.ActualQty)
	}
	if line.CountedAt != nil {
		countedAt = line.CountedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return []string{
		line.LineID,
		line.ItemPositionID,
		line.ItemID,
		line.ItemName,
		line.Position.String(),
		strconv.Itoa(line.ExpectedQty),
		actual,
		strconv.Itoa(line.Variance()),
		line.CountedBy,
		countedAt,
		line.Note,
	}
}

func discrepancyRow(d *domain.Discrepancy) []string {
	return []string{
		d.DiscrepancyID,
		d.LineID,
		d.ItemID,
		d.Type.String(),
		strconv.Itoa(d.ExpectedQty),
		strconv.Itoa(d.ActualQty),
		strconv.Itoa(d.Variance),
		d.Resolution.String(),
	}
}

// renderCSV writes the line rows followed by a second record group with
// one row per discrepancy
func renderCSV(assignment *domain.CountAssignment, discrepancies []*domain.Discrepancy) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range assignment.Lines {
		if err := w.Write(lineRow(&assignment.Lines[i])); err != nil {
			return nil, err
		}
	}

	if len(discrepancies) > 0 {
		if err := w.Write(discrepancyHeader); err != nil {
			return nil, err
		}
		for _, d := range discrepancies {
			if err := w.Write(discrepancyRow(d)); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(assignment *domain.CountAssignment, discrepancies []*domain.Discrepancy, stats *domain.CountStatistics) ([]byte, error) {
	report := struct {
		Assignment    *CountAssignmentDTO `json:"assignment"`
		Discrepancies []DiscrepancyDTO    `json:"discrepancies"`
		Statistics    *StatisticsDTO      `json:"statistics,omitempty"`
	}{
		Assignment:    ToCountAssignmentDTO(assignment),
		Discrepancies: ToDiscrepancyDTOs(discrepancies),
		Statistics:    ToStatisticsDTO(stats),
	}
	return json.MarshalIndent(report, "", "  ")
}

func renderExcel(assignment *domain.CountAssignment, discrepancies []*domain.Discrepancy, stats *domain.CountStatistics) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const linesSheet = "Lines"
	if err := f.SetSheetName("Sheet1", linesSheet); err != nil {
		return nil, err
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(linesSheet, cell, title); err != nil {
			return nil, err
		}
	}
	for row := range assignment.Lines {
		for col, value := range lineRow(&assignment.Lines[row]) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(linesSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	const discrepancySheet = "Discrepancies"
	if _, err := f.NewSheet(discrepancySheet); err != nil {
		return nil, err
	}
	for col, title := range discrepancyHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(discrepancySheet, cell, title); err != nil {
			return nil, err
		}
	}
	for row, d := range discrepancies {
		values := []interface{}{
			d.DiscrepancyID, d.LineID, d.ItemID, d.Type.String(),
			d.ExpectedQty, d.ActualQty, d.Variance, d.Resolution.String(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(discrepancySheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if stats != nil {
		const summarySheet = "Summary"
		if _, err := f.NewSheet(summarySheet); err != nil {
			return nil, err
		}
		summary := [][]interface{}{
			{"totalPositions", stats.TotalPositions},
			{"countedPositions", stats.CountedPositions},
			{"discrepancyCount", stats.DiscrepancyCount},
			{"surplusCount", stats.SurplusCount},
			{"shortageCount", stats.ShortageCount},
			{"totalSurplusQty", stats.TotalSurplusQty},
			{"totalShortageQty", stats.TotalShortageQty},
			{"completionPercentage", stats.CompletionPercentage()},
		}
		for row, pair := range summary {
			keyCell, err := excelize.CoordinatesToCellName(1, row+1)
			if err != nil {
				return nil, err
			}
			valueCell, err := excelize.CoordinatesToCellName(2, row+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(summarySheet, keyCell, pair[0]); err != nil {
				return nil, err
			}
			if err := f.SetCellValue(summarySheet, valueCell, pair[1]); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
