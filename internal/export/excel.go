// Package export renders recruiter reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/hirezaa/internal/ranking"
	"github.com/jonathan/hirezaa/internal/types"
)

// Sheet names
const (
	SummarySheet = "Summary"
	RankedSheet  = "Ranked Applicants"
)

// AssessmentResult is the latest assessment state for one application.
type AssessmentResult struct {
	Status types.AssessmentStatus
	Score  *float64 // set once the assessment is completed
}

// Report is everything one applicant export needs.
type Report struct {
	Job         *types.Job
	Applicants  []types.Application
	Results     map[uuid.UUID]AssessmentResult
	GeneratedAt time.Time
}

var ranked = []string{"Rank", "Candidate", "Email", "CGPA", "Status", "Applied", "Assessment", "Assessment Score"}

// WriteApplicants writes the report as an xlsx workbook to w. Applicants are
// ranked by CGPA, highest first, keeping submission order on ties.
func WriteApplicants(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RankedSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	apps := ranking.SortApplications(r.Applicants, ranking.SortByCGPA, false)

	if err := writeSummary(f, r, apps); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRanked(f, r, apps); err != nil {
		return fmt.Errorf("failed to create ranked applicants sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveApplicants writes the report to path, adding the .xlsx extension when missing.
func SaveApplicants(path string, r Report) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteApplicants(out, r); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, r Report, apps []types.Application) error {
	sheet := SummarySheet
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return err
	}

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	rows := [][2]any{
		{"Job Title:", r.Job.Title},
		{"Company:", r.Job.Company},
		{"Openings:", r.Job.NumberOfOpenings},
		{"Shortlist Target:", r.Job.ShortlistTargetCount()},
		{"Generated:", generated.UTC().Format("2006-01-02 15:04:05")},
		{"Total Applicants:", len(apps)},
	}

	_ = f.SetCellValue(sheet, "A1", "Applicant Report")
	_ = f.MergeCell(sheet, "A1", "B1")
	_ = f.SetCellStyle(sheet, "A1", "B1", header)

	row := 3
	for _, kv := range rows {
		setRow(f, sheet, row, kv[0], kv[1])
		_ = f.SetCellStyle(sheet, cell("A", row), cell("A", row), label)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, cell("A", row), "Status Breakdown")
	_ = f.MergeCell(sheet, cell("A", row), cell("B", row))
	_ = f.SetCellStyle(sheet, cell("A", row), cell("B", row), header)
	row++

	counts := types.CountStatuses(apps)
	for _, st := range types.ApplicationStatuses {
		setRow(f, sheet, row, string(st), counts[st])
		row++
	}

	var scored int
	var sum float64
	for _, a := range apps {
		if res, ok := r.Results[a.ID]; ok && res.Score != nil {
			scored++
			sum += *res.Score
		}
	}
	row++
	setRow(f, sheet, row, "Assessments Scored:", scored)
	_ = f.SetCellStyle(sheet, cell("A", row), cell("A", row), label)
	if scored > 0 {
		row++
		setRow(f, sheet, row, "Average Assessment Score:", fmt.Sprintf("%.2f", sum/float64(scored)))
		_ = f.SetCellStyle(sheet, cell("A", row), cell("A", row), label)
	}
	return nil
}

func writeRanked(f *excelize.File, r Report, apps []types.Application) error {
	sheet := RankedSheet
	widths := []float64{8, 28, 32, 8, 22, 20, 14, 18}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, h := range ranked {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, c, h)
		_ = f.SetCellStyle(sheet, c, c, header)
	}

	for i, a := range apps {
		row := i + 2
		values := []any{i + 1, a.CandidateName, a.CandidateEmail, a.CGPA, string(a.Status), a.AppliedAt.UTC().Format("2006-01-02")}
		if res, ok := r.Results[a.ID]; ok {
			values = append(values, string(res.Status))
			if res.Score != nil {
				values = append(values, *res.Score)
			}
		}
		for col, v := range values {
			c, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, c, v); err != nil {
				return err
			}
		}
	}

	if len(apps) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(ranked), len(apps)+1)
		if err := f.AutoFilter(sheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, row int, label, value any) {
	_ = f.SetCellValue(sheet, cell("A", row), label)
	_ = f.SetCellValue(sheet, cell("B", row), value)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
