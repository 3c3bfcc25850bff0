package invoicing

import (
	"context"
	"time"

	tariff "utility-billing/internal/tariff/domain"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
	StatusPaid      Status = "paid"
)

// Snapshot markers for lines not derived from meter readings.
const (
	FeeTypeFixedMonthly        = "fixed_monthly"
	CalculationTypeCirculation = "gyvatukas"
)

// Invoice is a billing document for one renter and period.
type Invoice struct {
	ID                 string        `json:"id"`
	TenantRenterID     string        `json:"tenant_renter_id"`
	PropertyID         string        `json:"property_id"`
	BillingPeriodStart time.Time     `json:"billing_period_start"`
	BillingPeriodEnd   time.Time     `json:"billing_period_end"`
	Status             Status        `json:"status,omitempty"`
	TotalAmount        float64       `json:"total_amount"`
	DueDate            time.Time     `json:"due_date"`
	Items              []InvoiceItem `json:"-"`
	SnapshotData       SnapshotData  `json:"snapshot_data"`
	SnapshotCreatedAt  time.Time     `json:"snapshot_created_at"`
	SnapshotHash       string        `json:"-"`
	FinalizedAt        *time.Time    `json:"-"`
	CreatedAt          time.Time     `json:"created_at"`
}

// IsDraft reports whether the invoice can still change.
func (inv *Invoice) IsDraft() bool {
	return inv.Status == StatusDraft
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	InvoiceID            string               `json:"invoice_id"`
	Position             int                  `json:"position"`
	Description          string               `json:"description"`
	Quantity             float64              `json:"quantity"`
	Unit                 string               `json:"unit"`
	UnitPrice            float64              `json:"unit_price"`
	Total                float64              `json:"total"`
	MeterReadingSnapshot MeterReadingSnapshot `json:"meter_reading_snapshot"`
}

// MeterReadingSnapshot freezes the inputs of a line at generation time.
type MeterReadingSnapshot struct {
	MeterID           string                `json:"meter_id,omitempty"`
	MeterSerial       string                `json:"meter_serial,omitempty"`
	MeterType         string                `json:"meter_type,omitempty"`
	StartReadingID    string                `json:"start_reading_id,omitempty"`
	StartReadingValue float64               `json:"start_reading_value,omitempty"`
	StartReadingDate  *time.Time            `json:"start_reading_date,omitempty"`
	EndReadingID      string                `json:"end_reading_id,omitempty"`
	EndReadingValue   float64               `json:"end_reading_value,omitempty"`
	EndReadingDate    *time.Time            `json:"end_reading_date,omitempty"`
	Zone              string                `json:"zone,omitempty"`
	TariffID          string                `json:"tariff_id,omitempty"`
	TariffName        string                `json:"tariff_name,omitempty"`
	TariffConfig      *tariff.Configuration `json:"tariff_configuration,omitempty"`
	FeeType           string                `json:"fee_type,omitempty"`

	BuildingID         string  `json:"building_id,omitempty"`
	CalculationType    string  `json:"calculation_type,omitempty"`
	CalculationDate    string  `json:"calculation_date,omitempty"`
	CirculationEnergy  float64 `json:"circulation_energy_kwh,omitempty"`
	BuildingCost       float64 `json:"building_cost,omitempty"`
	DistributionMethod string  `json:"distribution_method,omitempty"`
	Share              float64 `json:"share,omitempty"`
}

// SnapshotData records the invoice-level inputs used at generation time.
type SnapshotData struct {
	RenterID        string    `json:"renter_id"`
	PropertyID      string    `json:"property_id"`
	BuildingID      string    `json:"building_id,omitempty"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	WaterSupplyRate float64   `json:"water_supply_rate"`
	WaterSewageRate float64   `json:"water_sewage_rate"`
	WaterFixedFee   float64   `json:"water_fixed_fee"`
	DueDays         int       `json:"due_days"`
	Warnings        []string  `json:"warnings,omitempty"`
	ItemCount       int       `json:"item_count"`
}

// Repository persists invoices.
type Repository interface {
	// CreateWithItems stores the invoice and its items atomically.
	CreateWithItems(ctx context.Context, inv *Invoice) error
	// GetByID returns the invoice without items, or ErrInvoiceNotFound.
	GetByID(ctx context.Context, id string) (*Invoice, error)
	ListItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error)
	// MarkFinalized transitions a draft invoice. It returns ErrInvoiceAlreadyFinalized
	// when the stored invoice is no longer a draft.
	MarkFinalized(ctx context.Context, id, hash string, finalizedAt time.Time) error
}
