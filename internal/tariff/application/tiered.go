package application

import (
	"fmt"
	"time"

	tariff "utility-billing/internal/tariff/domain"
)

// Tiered charges progressive consumption blocks. Tier i covers consumption
// between the previous limit and its own; a nil limit is unbounded.
type Tiered struct{}

// Type implements Strategy.
func (Tiered) Type() tariff.ConfigurationType { return tariff.TypeTiered }

// Calculate implements Strategy.
func (Tiered) Calculate(cfg tariff.Configuration, consumption float64, _ time.Time) (float64, error) {
	if len(cfg.Tiers) == 0 {
		return 0, fmt.Errorf("%w: tiered tariff has no tiers", tariff.ErrInvalidConfiguration)
	}

	remaining := consumption
	previous := 0.0
	cost := 0.0
	for _, tier := range cfg.Tiers {
		if remaining <= 0 {
			break
		}
		if tier.Limit == nil {
			cost += remaining * tier.Rate
			remaining = 0
			break
		}
		block := *tier.Limit - previous
		if block < 0 {
			return 0, fmt.Errorf("%w: tier limits must ascend", tariff.ErrInvalidConfiguration)
		}
		used := remaining
		if used > block {
			used = block
		}
		cost += used * tier.Rate
		remaining -= used
		previous = *tier.Limit
	}

	// Overflow past the last bounded tier stays at that tier's rate.
	if remaining > 0 {
		cost += remaining * cfg.Tiers[len(cfg.Tiers)-1].Rate
	}
	return cost, nil
}
