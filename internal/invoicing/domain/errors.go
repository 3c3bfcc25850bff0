package invoicing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAssociatedProperty is wrapped when a renter has no property.
	ErrNoAssociatedProperty = errors.New("invoicing: no associated property")
	// ErrNoMeters is wrapped when a property has no meters.
	ErrNoMeters = errors.New("invoicing: no meters")
	// ErrMissingMeterReading is wrapped by MissingMeterReadingError.
	ErrMissingMeterReading = errors.New("invoicing: missing meter reading")
	// ErrInvoiceAlreadyFinalized is wrapped by InvoiceAlreadyFinalizedError.
	ErrInvoiceAlreadyFinalized = errors.New("invoicing: invoice already finalized")
	// ErrInvoiceNotFound is returned for an unknown invoice id.
	ErrInvoiceNotFound = errors.New("invoicing: invoice not found")
	// ErrInvalidPeriod is returned when the period end precedes its start.
	ErrInvalidPeriod = errors.New("invoicing: invalid billing period")
)

// BillingError reports why an invoice cannot be generated for a renter.
type BillingError struct {
	Message string
	Err     error
}

func (e *BillingError) Error() string { return e.Message }

func (e *BillingError) Unwrap() error { return e.Err }

// NoAssociatedProperty builds the error for a renter without property.
func NoAssociatedProperty(renterID string) *BillingError {
	return &BillingError{Message: fmt.Sprintf("tenant %s has no associated property", renterID), Err: ErrNoAssociatedProperty}
}

// NoMeters builds the error for a property without meters.
func NoMeters(propertyID string) *BillingError {
	return &BillingError{Message: fmt.Sprintf("property %s has no meters", propertyID), Err: ErrNoMeters}
}

// MissingMeterReadingError names the meter and the boundary lacking a reading.
type MissingMeterReadingError struct {
	MeterID  string
	Zone     string
	Boundary string
}

func (e *MissingMeterReadingError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("missing %s reading for meter %s zone %s", e.Boundary, e.MeterID, e.Zone)
	}
	return fmt.Sprintf("missing %s reading for meter %s", e.Boundary, e.MeterID)
}

func (e *MissingMeterReadingError) Unwrap() error { return ErrMissingMeterReading }

// InvoiceAlreadyFinalizedError is returned when a non-draft invoice is finalized.
type InvoiceAlreadyFinalizedError struct {
	InvoiceID string
	Status    Status
}

func (e *InvoiceAlreadyFinalizedError) Error() string {
	return fmt.Sprintf("invoice %s is already %s", e.InvoiceID, e.Status)
}

func (e *InvoiceAlreadyFinalizedError) Unwrap() error { return ErrInvoiceAlreadyFinalized }
