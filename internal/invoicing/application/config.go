package application

import (
	"time"

	circulation "utility-billing/internal/circulation/domain"
)

// maxPeriodDays bounds a single billing period.
const maxPeriodDays = 366

// Config holds invoice generation rates.
type Config struct {
	WaterSupplyRate    float64
	WaterSewageRate    float64
	WaterFixedFee      float64
	DueDays            int
	DistributionMethod circulation.DistributionMethod
}

// DefaultConfig returns the standard rates.
func DefaultConfig() Config {
	return Config{
		WaterSupplyRate:    0.97,
		WaterSewageRate:    1.23,
		WaterFixedFee:      0.85,
		DueDays:            14,
		DistributionMethod: circulation.DistributeEqual,
	}
}

func (c Config) dueDate(periodEnd time.Time) time.Time {
	return periodEnd.AddDate(0, 0, c.DueDays)
}
