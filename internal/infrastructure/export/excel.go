package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
)

// MonthlyReportGenerator renders one billing month of a property as an
// Excel workbook: a summary sheet plus a detail sheet listing every
// invoice line.
type MonthlyReportGenerator struct{}

// NewMonthlyReportGenerator creates a MonthlyReportGenerator
func NewMonthlyReportGenerator() *MonthlyReportGenerator {
	return &MonthlyReportGenerator{}
}

// Generate renders the workbook
func (g *MonthlyReportGenerator) Generate(month rental.BillingMonth, invoices []*billing.Invoice) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, month, invoices); err != nil {
		return nil, err
	}

	detailSheet := "Invoices"
	if _, err := file.NewSheet(detailSheet); err != nil {
		return nil, err
	}
	if err := g.writeDetail(file, detailSheet, invoices); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *MonthlyReportGenerator) writeSummary(file *excelize.File, sheet string, month rental.BillingMonth, invoices []*billing.Invoice) error {
	totalBilled := decimal.Zero
	totalPaid := decimal.Zero
	statusCounts := map[billing.InvoiceStatus]int{}
	for _, inv := range invoices {
		totalBilled = totalBilled.Add(inv.TotalAmount)
		totalPaid = totalPaid.Add(inv.PaidAmount)
		statusCounts[inv.Status]++
	}

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Billing month")
	set("B1", month.String())
	set("A2", "Invoices")
	set("B2", len(invoices))
	set("A3", "Total billed, VND")
	set("B3", FormatVND(totalBilled))
	set("A4", "Total collected, VND")
	set("B4", FormatVND(totalPaid))
	set("A5", "Outstanding, VND")
	set("B5", FormatVND(totalBilled.Sub(totalPaid)))

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Count")
	row := tableRow + 1
	for _, status := range []billing.InvoiceStatus{
		billing.InvoiceStatusDraft,
		billing.InvoiceStatusPending,
		billing.InvoiceStatusPartial,
		billing.InvoiceStatusPaid,
	} {
		set(fmt.Sprintf("A%d", row), string(status))
		set(fmt.Sprintf("B%d", row), statusCounts[status])
		row++
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func (g *MonthlyReportGenerator) writeDetail(file *excelize.File, sheet string, invoices []*billing.Invoice) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Invoice",
		"Room",
		"Status",
		"Line type",
		"Line item",
		"Quantity",
		"Unit",
		"Unit price, VND",
		"Amount, VND",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	row := 2
	for _, inv := range invoices {
		for _, item := range inv.LineItems {
			set(fmt.Sprintf("A%d", row), inv.Code)
			set(fmt.Sprintf("B%d", row), inv.RoomID.String())
			set(fmt.Sprintf("C%d", row), string(inv.Status))
			set(fmt.Sprintf("D%d", row), string(item.Type))
			set(fmt.Sprintf("E%d", row), item.Name)
			set(fmt.Sprintf("F%d", row), item.Quantity.String())
			set(fmt.Sprintf("G%d", row), item.Unit)
			set(fmt.Sprintf("H%d", row), FormatVND(item.UnitPrice))
			set(fmt.Sprintf("I%d", row), FormatVND(item.Amount))
			row++
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 22)
	_ = file.SetColWidth(sheet, "B", "B", 38)
	_ = file.SetColWidth(sheet, "E", "E", 28)
	return nil
}
