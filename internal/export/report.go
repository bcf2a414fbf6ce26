package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"fueltrack/internal/analytics"
	"fueltrack/internal/consumption"
)

const dayLayout = "2006-01-02"

// Report is the input to every export format: the consumption series for
// one subject plus the aggregates derived from it.
type Report struct {
	SubjectID   string
	Granularity analytics.Granularity
	Points      []consumption.Point
	Buckets     []analytics.Bucket
	Trend       analytics.TrendResult
	GeneratedAt time.Time
}

// BuildCSV renders the consumption points as CSV.
func BuildCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"date", "quantity", "cost"}); err != nil {
		return nil, err
	}
	for _, point := range report.Points {
		if err := writer.Write([]string{
			point.Date.Format(dayLayout),
			formatFloat(point.Quantity),
			formatFloat(point.Cost),
		}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders a usage workbook: a summary sheet plus the bucketed
// aggregates.
func BuildXLSX(report Report) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	bucketsSheet := "usage"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(bucketsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Usage Report")
	_ = f.SetCellValue(summarySheet, "A3", "Subject")
	_ = f.SetCellValue(summarySheet, "B3", report.SubjectID)
	_ = f.SetCellValue(summarySheet, "A4", "Granularity")
	_ = f.SetCellValue(summarySheet, "B4", string(report.Granularity))
	_ = f.SetCellValue(summarySheet, "A5", "Trend")
	_ = f.SetCellValue(summarySheet, "B5", string(report.Trend.Trend))
	_ = f.SetCellValue(summarySheet, "A6", "Change (%)")
	_ = f.SetCellValue(summarySheet, "B6", report.Trend.ChangePercent)
	_ = f.SetCellValue(summarySheet, "A7", "Generated")
	_ = f.SetCellValue(summarySheet, "B7", report.GeneratedAt.Format(time.RFC3339))

	_ = f.SetCellValue(bucketsSheet, "A1", "Period")
	_ = f.SetCellValue(bucketsSheet, "B1", "Total Quantity")
	_ = f.SetCellValue(bucketsSheet, "C1", "Total Cost")
	_ = f.SetCellValue(bucketsSheet, "D1", "Average Daily")
	_ = f.SetCellValue(bucketsSheet, "E1", "Entries")
	for i, bucket := range report.Buckets {
		row := i + 2
		_ = f.SetCellValue(bucketsSheet, fmt.Sprintf("A%d", row), bucket.Key)
		_ = f.SetCellValue(bucketsSheet, fmt.Sprintf("B%d", row), bucket.TotalQuantity)
		_ = f.SetCellValue(bucketsSheet, fmt.Sprintf("C%d", row), bucket.TotalCost)
		_ = f.SetCellValue(bucketsSheet, fmt.Sprintf("D%d", row), bucket.AverageDaily)
		_ = f.SetCellValue(bucketsSheet, fmt.Sprintf("E%d", row), bucket.Count)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders a minimal PDF usage report.
func BuildPDF(report Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Usage Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Subject: %s", report.SubjectID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Granularity: %s", report.Granularity))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Trend: %s (%.2f%%)", report.Trend.Trend, report.Trend.ChangePercent))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	// Buckets table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Period", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Avg Daily", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, bucket := range report.Buckets {
		pdf.CellFormat(40, 6, bucket.Key, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", bucket.TotalQuantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", bucket.TotalCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", bucket.AverageDaily), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
