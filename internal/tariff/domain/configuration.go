package tariff

import (
	"encoding/json"
	"fmt"
)

// ConfigurationType tags the pricing strategy of a configuration.
type ConfigurationType string

const (
	TypeFlat          ConfigurationType = "flat"
	TypeTimeOfUse     ConfigurationType = "time_of_use"
	TypeTiered        ConfigurationType = "tiered"
	TypeCustomFormula ConfigurationType = "custom_formula"
)

// WeekendLogic selects how time-of-use tariffs price Saturdays and Sundays.
type WeekendLogic string

const (
	WeekendNightRate   WeekendLogic = "apply_night_rate"
	WeekendDayRate     WeekendLogic = "apply_day_rate"
	WeekendWeekendRate WeekendLogic = "apply_weekend_rate"
)

// Zone is a time-of-day window priced at Rate. Start and End are "HH:MM";
// End is exclusive and may be earlier than Start for windows crossing midnight.
type Zone struct {
	ID    string  `json:"id"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Rate  float64 `json:"rate"`
}

// Tier is a consumption block. A nil Limit is unbounded.
type Tier struct {
	Limit *float64 `json:"limit"`
	Rate  float64  `json:"rate"`
}

// Configuration is the tagged pricing variant stored with a tariff.
type Configuration struct {
	Type         ConfigurationType  `json:"type"`
	Rate         float64            `json:"rate,omitempty"`
	Zones        []Zone             `json:"zones,omitempty"`
	WeekendLogic WeekendLogic       `json:"weekend_logic,omitempty"`
	Tiers        []Tier             `json:"tiers,omitempty"`
	Expression   string             `json:"expression,omitempty"`
	Variables    map[string]float64 `json:"variables,omitempty"`
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Zones != nil {
		out.Zones = append([]Zone(nil), c.Zones...)
	}
	if c.Tiers != nil {
		out.Tiers = make([]Tier, len(c.Tiers))
		for i, tier := range c.Tiers {
			out.Tiers[i] = tier
			if tier.Limit != nil {
				limit := *tier.Limit
				out.Tiers[i].Limit = &limit
			}
		}
	}
	if c.Variables != nil {
		out.Variables = make(map[string]float64, len(c.Variables))
		for k, v := range c.Variables {
			out.Variables[k] = v
		}
	}
	return out
}

// ParseConfiguration decodes a stored configuration document.
func ParseConfiguration(data []byte) (Configuration, error) {
	var cfg Configuration
	if len(data) == 0 {
		return cfg, fmt.Errorf("%w: empty document", ErrInvalidConfiguration)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// Limit returns a pointer to v for building tiers.
func Limit(v float64) *float64 { return &v }
