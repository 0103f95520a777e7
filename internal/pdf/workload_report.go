package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"crewdesk/internal/models"
)

// ReportGenerator renders workload reports.
type ReportGenerator interface {
	WorkloadReport(team *models.Team, scores []models.WorkloadScore, generatedAt time.Time) ([]byte, error)
}

type reportGenerator struct{}

func NewReportGenerator() ReportGenerator {
	return &reportGenerator{}
}

// WorkloadReport renders one table row per member, highest score first
// (callers pass scores already sorted).
func (g *reportGenerator) WorkloadReport(team *models.Team, scores []models.WorkloadScore, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Workload report - %s", team.Name), false)
	pdf.SetAuthor("crewdesk", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "TEAM WORKLOAD REPORT", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s - generated %s", team.Name, generatedAt.Format("02.01.2006 15:04")),
		"", 1, "C", false, 0, "")
	pdf.Ln(4)

	// header row
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(60, 8, "Member", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Open hours", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Overdue", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Score", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, s := range scores {
		pdf.CellFormat(60, 8, s.UserName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.1f", s.OpenEstimatedHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", s.OverdueCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", s.Score), "1", 1, "R", false, 0, "")
	}

	if len(scores) == 0 {
		pdf.CellFormat(155, 8, "No team members", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render workload report: %w", err)
	}
	return buf.Bytes(), nil
}
