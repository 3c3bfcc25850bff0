package application

import (
	"errors"
	"fmt"
	"time"

	circulation "utility-billing/internal/circulation/domain"
)

// Config holds the physical constants and season boundaries.
type Config struct {
	HeatingSeasonStartMonth   int
	HeatingSeasonEndMonth     int
	WaterSpecificHeat         float64
	TemperatureDelta          float64
	PeakWinterMonths          []int
	PeakWinterAdjustment      float64
	MaxApartments             int
	CacheTTL                  time.Duration
	DefaultDistributionMethod circulation.DistributionMethod
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		HeatingSeasonStartMonth:   10,
		HeatingSeasonEndMonth:     4,
		WaterSpecificHeat:         1.163,
		TemperatureDelta:          45,
		PeakWinterMonths:          []int{12, 1, 2},
		PeakWinterAdjustment:      1.3,
		MaxApartments:             1000,
		CacheTTL:                  24 * time.Hour,
		DefaultDistributionMethod: circulation.DistributeEqual,
	}
}

var errInvalidConfig = errors.New("circulation: invalid config")

// Validate checks ranges.
func (c Config) Validate() error {
	if c.HeatingSeasonStartMonth < 1 || c.HeatingSeasonStartMonth > 12 ||
		c.HeatingSeasonEndMonth < 1 || c.HeatingSeasonEndMonth > 12 {
		return fmt.Errorf("%w: heating season months must be 1..12", errInvalidConfig)
	}
	if c.WaterSpecificHeat < 0.5 || c.WaterSpecificHeat > 2.0 {
		return fmt.Errorf("%w: water specific heat %.3f outside 0.5..2.0", errInvalidConfig, c.WaterSpecificHeat)
	}
	if c.TemperatureDelta < 20 || c.TemperatureDelta > 80 {
		return fmt.Errorf("%w: temperature delta %.1f outside 20..80", errInvalidConfig, c.TemperatureDelta)
	}
	if c.PeakWinterAdjustment <= 0 {
		return fmt.Errorf("%w: peak winter adjustment must be positive", errInvalidConfig)
	}
	if c.MaxApartments <= 0 {
		return fmt.Errorf("%w: max apartments must be positive", errInvalidConfig)
	}
	if !c.DefaultDistributionMethod.Valid() {
		return fmt.Errorf("%w: unknown distribution method %q", errInvalidConfig, c.DefaultDistributionMethod)
	}
	return nil
}

func (c Config) isPeakMonth(m time.Month) bool {
	for _, peak := range c.PeakWinterMonths {
		if time.Month(peak) == m {
			return true
		}
	}
	return false
}
