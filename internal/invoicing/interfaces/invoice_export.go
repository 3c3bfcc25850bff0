package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	invoicing "utility-billing/internal/invoicing/domain"
)

// Export formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Export renders inv in the named format.
func Export(inv *invoicing.Invoice, format string) ([]byte, error) {
	switch format {
	case FormatPDF:
		return BuildInvoicePDF(inv)
	case FormatXLSX:
		return BuildInvoiceXLSX(inv)
	default:
		return nil, fmt.Errorf("invoice export: unsupported format %q", format)
	}
}

// BuildInvoicePDF renders a PDF for an invoice.
func BuildInvoicePDF(inv *invoicing.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoice export: nil invoice")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", inv.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Renter: %s", inv.TenantRenterID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Property: %s", inv.PropertyID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s",
		inv.BillingPeriodStart.Format(time.DateOnly), inv.BillingPeriodEnd.Format(time.DateOnly)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", inv.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due: %s", inv.DueDate.Format(time.DateOnly)))
	pdf.Ln(5)
	if inv.FinalizedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Finalized: %s", inv.FinalizedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Unit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Unit Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(80, 6, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, tr(item.Unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.4f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", item.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(155, 6, "Total Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", inv.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoiceXLSX renders an XLSX workbook for an invoice.
func BuildInvoiceXLSX(inv *invoicing.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("invoice export: nil invoice")
	}
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	itemsSheet := "items"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Invoice", inv.ID},
		{"Renter", inv.TenantRenterID},
		{"Property", inv.PropertyID},
		{"Period Start", inv.BillingPeriodStart.Format(time.DateOnly)},
		{"Period End", inv.BillingPeriodEnd.Format(time.DateOnly)},
		{"Status", string(inv.Status)},
		{"Due Date", inv.DueDate.Format(time.DateOnly)},
		{"Total Amount", inv.TotalAmount},
		{"Snapshot Hash", inv.SnapshotHash},
	}
	_ = f.SetCellValue(summarySheet, "A1", "Invoice")
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	headers := []string{"Position", "Description", "Quantity", "Unit", "Unit Price", "Total"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(itemsSheet, cell, h)
	}
	for i, item := range inv.Items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.Position)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Quantity)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Unit)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.UnitPrice)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), item.Total)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
