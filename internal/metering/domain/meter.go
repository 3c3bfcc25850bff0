package metering

import (
	"context"
	"errors"
	"time"
)

// MeterType is the utility a meter measures.
type MeterType string

const (
	Electricity MeterType = "electricity"
	WaterCold   MeterType = "water_cold"
	WaterHot    MeterType = "water_hot"
	Heating     MeterType = "heating"
	Gas         MeterType = "gas"
)

// ErrMeterNotFound is returned when a meter id is unknown.
var ErrMeterNotFound = errors.New("metering: meter not found")

// Unit returns the billing unit for the meter type.
func (t MeterType) Unit() string {
	switch t {
	case Electricity, Heating:
		return "kWh"
	case WaterCold, WaterHot, Gas:
		return "m³"
	}
	return "unit"
}

// IsWater reports whether the meter bills water supply and sewage.
func (t MeterType) IsWater() bool { return t == WaterCold || t == WaterHot }

// Label is the human readable line description.
func (t MeterType) Label() string {
	switch t {
	case Electricity:
		return "Electricity"
	case WaterCold:
		return "Cold Water"
	case WaterHot:
		return "Hot Water"
	case Heating:
		return "Heating"
	case Gas:
		return "Gas"
	}
	return string(t)
}

// Meter is a physical meter installed at a property.
type Meter struct {
	ID            string
	PropertyID    string
	Type          MeterType
	SupportsZones bool
	SerialNumber  string
}

// Reading is a cumulative meter value. An empty Zone means the reading
// belongs to no tariff zone.
type Reading struct {
	ID          string
	MeterID     string
	Value       float64
	ReadingDate time.Time
	Zone        string
}

// ReadingStore looks up readings. Zone matches exactly; "" selects readings
// without a zone. Lookups return nil when no reading qualifies.
type ReadingStore interface {
	LatestAtOrBefore(ctx context.Context, meterID, zone string, at time.Time) (*Reading, error)
	EarliestAtOrAfter(ctx context.Context, meterID, zone string, at time.Time) (*Reading, error)
	ZonesInPeriod(ctx context.Context, meterID string, from, to time.Time) ([]string, error)
}

// MeterStore lists meters.
type MeterStore interface {
	ListByProperty(ctx context.Context, propertyID string) ([]Meter, error)
}
