package tariff

import (
	"fmt"
	"strconv"
	"strings"

	"utility-billing/internal/formula"
)

// ConsumptionVariable is the name consumption is bound to in formulas.
const ConsumptionVariable = "consumption"

// MinutesPerDay is the exclusive upper bound of a zone clock.
const MinutesPerDay = 24 * 60

// Validate checks the shape of a configuration for its type.
func (c Configuration) Validate() error {
	switch c.Type {
	case TypeFlat:
		if c.Rate < 0 {
			return invalid("rate must not be negative")
		}
	case TypeTimeOfUse:
		return validateZones(c)
	case TypeTiered:
		return validateTiers(c.Tiers)
	case TypeCustomFormula:
		return validateFormula(c)
	case "":
		return invalid("type is required")
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, c.Type)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func validateZones(cfg Configuration) error {
	if len(cfg.Zones) == 0 {
		return invalid("at least one zone is required")
	}
	seen := make(map[string]struct{}, len(cfg.Zones))
	for _, zone := range cfg.Zones {
		if zone.ID == "" {
			return invalid("zone id is required")
		}
		if _, dup := seen[zone.ID]; dup {
			return invalid("duplicate zone %q", zone.ID)
		}
		seen[zone.ID] = struct{}{}
		if _, _, err := zone.Window(); err != nil {
			return err
		}
		if zone.Rate < 0 {
			return invalid("zone %q rate must not be negative", zone.ID)
		}
	}
	switch cfg.WeekendLogic {
	case "", WeekendNightRate, WeekendDayRate, WeekendWeekendRate:
	default:
		return invalid("unknown weekend logic %q", cfg.WeekendLogic)
	}
	return nil
}

func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return invalid("at least one tier is required")
	}
	previous := 0.0
	for i, tier := range tiers {
		if tier.Rate < 0 {
			return invalid("tier %d rate must not be negative", i+1)
		}
		if tier.Limit == nil {
			if i != len(tiers)-1 {
				return invalid("only the last tier may be unbounded")
			}
			continue
		}
		if *tier.Limit <= previous {
			return invalid("tier %d limit must exceed %v", i+1, previous)
		}
		previous = *tier.Limit
	}
	return nil
}

func validateFormula(cfg Configuration) error {
	prog, err := formula.Compile(cfg.Expression)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	for _, name := range prog.Identifiers() {
		if name == ConsumptionVariable {
			continue
		}
		if _, ok := cfg.Variables[name]; !ok {
			return invalid("formula references undeclared variable %q", name)
		}
	}
	return nil
}

// Window returns the zone bounds in minutes after midnight.
func (zone Zone) Window() (int, int, error) {
	start, err := ParseClock(zone.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: zone %q start: %v", ErrInvalidConfiguration, zone.ID, err)
	}
	end, err := ParseClock(zone.End)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: zone %q end: %v", ErrInvalidConfiguration, zone.ID, err)
	}
	return start, end, nil
}

// ParseClock converts "HH:MM" to minutes after midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(value string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	if hour == 24 && minute == 0 {
		return MinutesPerDay, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q is out of range", value)
	}
	return hour*60 + minute, nil
}
