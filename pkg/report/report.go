// Package report renders a two-page PDF threat report for a completed scan.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/harveywai/threatscan/pkg/database"
)

// Overall risk scores mapped from the verdict. The meter shows a fixed
// position per class rather than a raw model score.
const (
	riskScoreLegitimate = 20
	riskScorePhishing   = 80
)

// Palette used across the report.
var (
	headerBlue  = rgb{31, 58, 95}
	badgeGreen  = rgb{39, 140, 77}
	badgeRed    = rgb{192, 57, 43}
	barTrack    = rgb{228, 232, 238}
	riskLow     = rgb{46, 160, 90}
	riskMedium  = rgb{235, 170, 35}
	riskHigh    = rgb{205, 60, 50}
	tableStripe = rgb{244, 246, 250}
)

type rgb struct{ r, g, b int }

// RiskFactors derives the per-signal risk percentages shown on page two.
type RiskFactors struct {
	DomainAge int
	Redirects int
	Keywords  int
	Overall   int
}

// ComputeRiskFactors converts raw scan signals into 0-100 risk values.
// A brand-new domain is maximum age risk; risk decays to zero at one year.
func ComputeRiskFactors(scan database.Scan) RiskFactors {
	age := scan.DomainAgeDays
	if age > 365 {
		age = 365
	}
	f := RiskFactors{
		DomainAge: 100 - age*100/365,
		Redirects: min100(scan.Redirects * 25),
		Keywords:  min100(scan.SuspiciousKeywords * 30),
		Overall:   riskScoreLegitimate,
	}
	if scan.Result == "Phishing" {
		f.Overall = riskScorePhishing
	}
	return f
}

func min100(v int) int {
	if v > 100 {
		return 100
	}
	return v
}

// Generate renders the PDF report and returns its bytes.
func Generate(scan database.Scan, userEmail string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)

	factors := ComputeRiskFactors(scan)

	renderSummaryPage(pdf, scan, userEmail, factors)
	renderRiskPage(pdf, scan, factors)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func renderSummaryPage(pdf *fpdf.Fpdf, scan database.Scan, userEmail string, factors RiskFactors) {
	pdf.AddPage()

	// Header band.
	setFill(pdf, headerBlue)
	pdf.Rect(0, 0, 210, 34, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(14, 9)
	pdf.CellFormat(0, 9, "Threat Intelligence Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(14)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04")+" for "+userEmail, "", 1, "L", false, 0, "")

	pdf.SetTextColor(30, 30, 30)
	pdf.SetXY(14, 44)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(28, 7, "Scanned URL", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 7, scan.URL, "", "L", false)

	// Verdict badge.
	badge := badgeGreen
	if scan.Result == "Phishing" {
		badge = badgeRed
	}
	setFill(pdf, badge)
	pdf.RoundedRect(14, pdf.GetY()+4, 58, 12, 2.5, "1234", "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(14, pdf.GetY()+4)
	pdf.CellFormat(58, 12, scan.Result, "", 1, "C", false, 0, "")

	// Overall risk meter.
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(14, pdf.GetY()+8)
	pdf.CellFormat(0, 7, fmt.Sprintf("Overall risk: %d / 100", factors.Overall), "", 1, "L", false, 0, "")
	drawBar(pdf, 14, pdf.GetY()+1, 180, factors.Overall)
	pdf.SetY(pdf.GetY() + 12)

	// OSINT table.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetX(14)
	pdf.CellFormat(0, 8, "Collected Intelligence", "", 1, "L", false, 0, "")

	rows := []struct {
		label string
		value string
	}{
		{"Domain", scan.Domain},
		{"HTTPS", yesNo(scan.HTTPS)},
		{"Valid SSL certificate", yesNo(scan.SSLValid)},
		{"Domain age", fmt.Sprintf("%d days", scan.DomainAgeDays)},
		{"Redirects followed", fmt.Sprintf("%d", scan.Redirects)},
		{"Suspicious keywords", fmt.Sprintf("%d", scan.SuspiciousKeywords)},
		{"Subdomain labels", fmt.Sprintf("%d", scan.SubdomainCount)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range rows {
		fill := i%2 == 1
		if fill {
			setFill(pdf, tableStripe)
		}
		pdf.SetX(14)
		pdf.CellFormat(70, 8, row.label, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(110, 8, row.value, "1", 1, "L", fill, 0, "")
	}
}

func renderRiskPage(pdf *fpdf.Fpdf, scan database.Scan, factors RiskFactors) {
	pdf.AddPage()

	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(14, 18)
	pdf.CellFormat(0, 9, "Risk Factor Breakdown", "", 1, "L", false, 0, "")

	// Severity legend.
	pdf.SetFont("Helvetica", "", 9)
	legend := []struct {
		color rgb
		label string
	}{
		{riskLow, "Low (0-39)"},
		{riskMedium, "Medium (40-69)"},
		{riskHigh, "High (70-100)"},
	}
	x := 14.0
	y := pdf.GetY() + 3
	for _, item := range legend {
		setFill(pdf, item.color)
		pdf.Rect(x, y, 5, 5, "F")
		pdf.SetXY(x+7, y)
		pdf.CellFormat(38, 5, item.label, "", 0, "L", false, 0, "")
		x += 50
	}
	pdf.SetY(y + 14)

	bars := []struct {
		label string
		value int
	}{
		{"Domain age", factors.DomainAge},
		{"Redirect behavior", factors.Redirects},
		{"Suspicious keywords", factors.Keywords},
		{"Overall", factors.Overall},
	}
	for _, bar := range bars {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetX(14)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %d", bar.label, bar.value), "", 1, "L", false, 0, "")
		drawBar(pdf, 14, pdf.GetY()+1, 180, bar.value)
		pdf.SetY(pdf.GetY() + 14)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.SetX(14)
	pdf.MultiCell(0, 5, "Verdict for "+scan.Domain+" combines the trained classifier with "+
		"hard rules for strong signals. Individual factors above are informational.", "", "L", false)
}

// drawBar renders a horizontal meter: a grey track with a colored fill
// proportional to value (0-100).
func drawBar(pdf *fpdf.Fpdf, x, y, width float64, value int) {
	setFill(pdf, barTrack)
	pdf.Rect(x, y, width, 6, "F")

	color := riskLow
	switch {
	case value >= 70:
		color = riskHigh
	case value >= 40:
		color = riskMedium
	}
	setFill(pdf, color)
	pdf.Rect(x, y, width*float64(value)/100, 6, "F")
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}

func yesNo(flag int) string {
	if flag == 1 {
		return "Yes"
	}
	return "No"
}
