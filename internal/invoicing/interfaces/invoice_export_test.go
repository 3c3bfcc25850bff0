package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	invoicing "utility-billing/internal/invoicing/domain"
)

func exportFixture() *invoicing.Invoice {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	return &invoicing.Invoice{
		ID:                 "inv-1",
		TenantRenterID:     "r-1",
		PropertyID:         "p-1",
		BillingPeriodStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		BillingPeriodEnd:   end,
		Status:             invoicing.StatusDraft,
		TotalAmount:        25.25,
		DueDate:            end.AddDate(0, 0, 14),
		Items: []invoicing.InvoiceItem{
			{Position: 1, Description: "Cold Water", Quantity: 10, Unit: "m³", UnitPrice: 2.2, Total: 22},
			{Position: 2, Description: "Cold Water - Fixed Fee", Quantity: 1, Unit: "month", UnitPrice: 0.85, Total: 0.85},
			{Position: 3, Description: "Gyvatukas (Hot Water Circulation)", Quantity: 1, Unit: "month", UnitPrice: 2.4, Total: 2.4},
		},
	}
}

func TestBuildInvoicePDF(t *testing.T) {
	data, err := BuildInvoicePDF(exportFixture())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildInvoiceXLSX(t *testing.T) {
	data, err := BuildInvoiceXLSX(exportFixture())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue("summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", id)

	desc, err := f.GetCellValue("items", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Gyvatukas (Hot Water Circulation)", desc)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := Export(exportFixture(), "csv")
	assert.Error(t, err)

	_, err = Export(nil, FormatPDF)
	assert.Error(t, err)
}
