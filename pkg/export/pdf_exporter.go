package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/siteops-api/internal/models"
)

// PDFExporter renders daily reports into a printable site document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderDailyReport produces the signed-off printout of one report:
// header block, item table, remarks.
func (e *PDFExporter) RenderDailyReport(report *models.DailyReport, projectName string) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf requires a report")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "DAILY PROGRESS REPORT", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	writeField := func(label, value string) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, value, "", 1, "", false, 0, "")
	}
	writeField("Project", projectName)
	writeField("Report date", report.ReportDate.Format("2006-01-02"))
	writeField("Diary no.", report.DiaryDate)
	writeField("Status", string(report.Status))
	if report.Grade != nil {
		writeField("Grade", string(*report.Grade))
	}
	pdf.Ln(4)

	headers := []struct {
		label string
		width float64
	}{
		{"#", 10},
		{"Sub-activity", 60},
		{"Zone", 35},
		{"Quantity", 25},
		{"Foreman", 30},
		{"Subcontractor", 30},
	}
	pdf.SetFont("Arial", "B", 9)
	for _, h := range headers {
		pdf.CellFormat(h.width, 8, h.label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, item := range report.Items {
		zone := ""
		if item.ZoneName != nil {
			zone = *item.ZoneName
		}
		foreman := ""
		if item.Foreman != nil {
			foreman = *item.Foreman
		}
		sub := ""
		if item.Subcontractor != nil {
			sub = *item.Subcontractor
		}
		cells := []struct {
			value string
			width float64
			align string
		}{
			{strconv.Itoa(i + 1), 10, "C"},
			{item.SubActivityID, 60, ""},
			{zone, 35, ""},
			{strconv.FormatFloat(item.Quantity, 'f', 2, 64), 25, "R"},
			{foreman, 30, ""},
			{sub, 30, ""},
		}
		for _, cell := range cells {
			pdf.CellFormat(cell.width, 7, cell.value, "1", 0, cell.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if report.Remarks != nil && *report.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, "Remarks", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 6, *report.Remarks, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
