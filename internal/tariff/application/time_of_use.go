package application

import (
	"fmt"
	"time"

	tariff "utility-billing/internal/tariff/domain"
)

// TimeOfUse charges the rate of the zone covering the timestamp.
type TimeOfUse struct{}

// Type implements Strategy.
func (TimeOfUse) Type() tariff.ConfigurationType { return tariff.TypeTimeOfUse }

// Calculate implements Strategy.
func (TimeOfUse) Calculate(cfg tariff.Configuration, consumption float64, at time.Time) (float64, error) {
	zone, err := ZoneAt(cfg, at)
	if err != nil {
		return 0, err
	}
	return consumption * zone.Rate, nil
}

// ZoneAt selects the zone applying at the given instant, using the clock time
// in at's location. On weekends the configured weekend logic picks a named
// zone when present. When no window matches the first zone is returned.
func ZoneAt(cfg tariff.Configuration, at time.Time) (tariff.Zone, error) {
	if len(cfg.Zones) == 0 {
		return tariff.Zone{}, fmt.Errorf("%w: time_of_use tariff has no zones", tariff.ErrInvalidConfiguration)
	}

	if isWeekend(at) {
		if id := weekendZoneID(cfg.WeekendLogic); id != "" {
			if zone, ok := findZone(cfg.Zones, id); ok {
				return zone, nil
			}
		}
	}

	minute := at.Hour()*60 + at.Minute()
	for _, zone := range cfg.Zones {
		start, end, err := zone.Window()
		if err != nil {
			return tariff.Zone{}, err
		}
		if inWindow(minute, start, end) {
			return zone, nil
		}
	}
	return cfg.Zones[0], nil
}

// ZoneStart returns the start of zone zoneID on day, in day's location. It is
// the representative instant used when pricing a whole zone register. When
// weekend logic maps that instant to another zone, the closest earlier day on
// which the instant selects zoneID is used instead.
func ZoneStart(cfg tariff.Configuration, zoneID string, day time.Time) (time.Time, error) {
	zone, ok := findZone(cfg.Zones, zoneID)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: zone %q not defined", tariff.ErrInvalidConfiguration, zoneID)
	}
	start, err := tariff.ParseClock(zone.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: zone %q: %v", tariff.ErrInvalidConfiguration, zone.ID, err)
	}
	y, m, d := day.Date()
	first := time.Date(y, m, d, start/60, start%60, 0, 0, day.Location())
	for back := 0; back < 7; back++ {
		at := first.AddDate(0, 0, -back)
		selected, err := ZoneAt(cfg, at)
		if err != nil {
			return time.Time{}, err
		}
		if selected.ID == zoneID {
			return at, nil
		}
	}
	return first, nil
}

func isWeekend(at time.Time) bool {
	wd := at.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func weekendZoneID(logic tariff.WeekendLogic) string {
	switch logic {
	case tariff.WeekendNightRate:
		return "night"
	case tariff.WeekendDayRate:
		return "day"
	case tariff.WeekendWeekendRate:
		return "weekend"
	}
	return ""
}

func findZone(zones []tariff.Zone, id string) (tariff.Zone, bool) {
	for _, z := range zones {
		if z.ID == id {
			return z, true
		}
	}
	return tariff.Zone{}, false
}

// inWindow reports start <= minute < end, wrapping past midnight when end <=
// start. Equal bounds cover the whole day.
func inWindow(minute, start, end int) bool {
	switch {
	case start == end:
		return true
	case start < end:
		return minute >= start && minute < end
	default:
		return minute >= start || minute < end
	}
}
