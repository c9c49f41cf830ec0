package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/billing"
)

// InvoicePDFGenerator renders an invoice as a printable PDF the landlord
// hands to the tenant.
type InvoicePDFGenerator struct {
	fontName string
}

// NewInvoicePDFGenerator creates an InvoicePDFGenerator
func NewInvoicePDFGenerator() *InvoicePDFGenerator {
	return &InvoicePDFGenerator{fontName: "Arial"}
}

// Generate renders the invoice document
func (g *InvoicePDFGenerator) Generate(inv *billing.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("No. %s", inv.Code), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Billing month: %s", inv.Month.String()), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Room: %s", inv.RoomID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Contract: %s", inv.ContractID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", inv.Status), "", 1, "L", false, 0, "")
	if !inv.DueDate.IsZero() {
		pdf.CellFormat(0, 5, fmt.Sprintf("Due date: %s", formatDate(inv.DueDate)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Item", "Qty", "Unit", "Unit price", "Amount"}
	colWidths := []float64{80, 20, 20, 30, 30}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, item := range inv.LineItems {
		row := []string{
			tr(item.Name),
			formatQuantity(item.Quantity),
			tr(item.Unit),
			FormatVND(item.UnitPrice),
			FormatVND(item.Amount),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s VND", FormatVND(inv.TotalAmount)), "", 1, "R", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Paid: %s VND", FormatVND(inv.PaidAmount)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Outstanding: %s VND", FormatVND(inv.Outstanding())), "", 1, "R", false, 0, "")

	if len(inv.Payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, "Payment history", "", 1, "L", false, 0, "")

		payHeaders := []string{"Date", "Method", "Amount", "Note"}
		payWidths := []float64{40, 30, 40, 70}
		drawTableRow(pdf, g.fontName, payHeaders, payWidths, true)
		for _, p := range inv.Payments {
			row := []string{
				formatDate(p.PaidAt),
				string(p.Method),
				FormatVND(p.Amount),
				tr(safeValue(p.Note)),
			}
			drawTableRow(pdf, g.fontName, row, payWidths, false)
		}
	}

	if inv.Note != "" {
		pdf.Ln(4)
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, tr("Note: "+inv.Note), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatQuantity(q decimal.Decimal) string {
	return q.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// FormatVND renders a whole-dong amount with thousand separators.
func FormatVND(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
