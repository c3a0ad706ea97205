package evaluation

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// WritePeriodReportPDF renders the report as an A4 document.
func WritePeriodReportPDF(w io.Writer, report PeriodReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Data quality evaluation - period %d", report.PeriodID))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Completed evaluations: %d", report.Completed))
	pdf.Ln(10)

	writeSummaryTable(pdf, "Data types", report.DataTypes)
	writeSummaryTable(pdf, "Quality criteria", report.Criteria)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Period sums (criterion / data type)")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	for _, criteriaID := range slices.Sorted(maps.Keys(report.Results)) {
		inner := report.Results[criteriaID]
		for _, dataTypeID := range slices.Sorted(maps.Keys(inner)) {
			pdf.Cell(0, 6, fmt.Sprintf("Criterion %d / data type %d: %d", criteriaID, dataTypeID, inner[dataTypeID]))
			pdf.Ln(6)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func writeSummaryTable(pdf *gofpdf.Fpdf, title string, rows []Summary) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{20, 80, 25, 25, 30}
	for i, header := range []string{"ID", "Name", "Priority", "Total", "Average"} {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		avg := "-"
		if row.AverageScore != nil {
			avg = strconv.FormatFloat(*row.AverageScore, 'f', 2, 64)
		}
		cells := []string{
			strconv.FormatInt(row.ID, 10),
			row.Name,
			strconv.FormatInt(row.Priority, 10),
			strconv.FormatInt(row.TotalScore, 10),
			avg,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}
