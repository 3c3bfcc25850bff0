package tariff

import (
	"errors"
	"testing"
	"time"
)

func TestCloneIsDeep(t *testing.T) {
	cfg := Configuration{
		Type:      TypeTiered,
		Tiers:     []Tier{{Limit: Limit(100), Rate: 0.1}, {Rate: 0.2}},
		Zones:     []Zone{{ID: "day", Start: "07:00", End: "23:00", Rate: 0.2}},
		Variables: map[string]float64{"base": 5},
	}
	clone := cfg.Clone()

	*cfg.Tiers[0].Limit = 1
	cfg.Zones[0].Rate = 9
	cfg.Variables["base"] = 7

	if *clone.Tiers[0].Limit != 100 {
		t.Fatalf("tier limit shared: %v", *clone.Tiers[0].Limit)
	}
	if clone.Zones[0].Rate != 0.2 {
		t.Fatalf("zone shared: %v", clone.Zones[0].Rate)
	}
	if clone.Variables["base"] != 5 {
		t.Fatalf("variables shared: %v", clone.Variables["base"])
	}
	if clone.Tiers[1].Limit != nil {
		t.Fatalf("unbounded tier gained a limit")
	}
}

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration([]byte(`{
		"type": "time_of_use",
		"zones": [{"id": "night", "start": "23:00", "end": "07:00", "rate": 0.1}],
		"weekend_logic": "apply_night_rate"
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Type != TypeTimeOfUse || len(cfg.Zones) != 1 || cfg.WeekendLogic != WeekendNightRate {
		t.Fatalf("unexpected configuration: %+v", cfg)
	}

	if _, err := ParseConfiguration([]byte(`{"type":`)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	if _, err := ParseConfiguration(nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration for empty document, got %v", err)
	}
}

func TestActiveAtInclusiveBounds(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	tr := Tariff{ActiveFrom: from, ActiveUntil: &until}

	if !tr.ActiveAt(from) || !tr.ActiveAt(until) {
		t.Fatalf("bounds must be inclusive")
	}
	if tr.ActiveAt(from.Add(-time.Second)) || tr.ActiveAt(until.Add(time.Second)) {
		t.Fatalf("outside window reported active")
	}
	open := Tariff{ActiveFrom: from}
	if !open.ActiveAt(from.AddDate(10, 0, 0)) {
		t.Fatalf("open-ended tariff must stay active")
	}
}
