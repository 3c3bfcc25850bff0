package application

import (
	"time"

	tariff "utility-billing/internal/tariff/domain"
)

// Flat charges a single rate for all consumption.
type Flat struct{}

// Type implements Strategy.
func (Flat) Type() tariff.ConfigurationType { return tariff.TypeFlat }

// Calculate implements Strategy.
func (Flat) Calculate(cfg tariff.Configuration, consumption float64, _ time.Time) (float64, error) {
	return consumption * cfg.Rate, nil
}
