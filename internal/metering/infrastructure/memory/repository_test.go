package memory

import (
	"context"
	"testing"
	"time"

	metering "utility-billing/internal/metering/domain"
)

func TestReadingLookups(t *testing.T) {
	repo := NewRepository()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	repo.AddReading(metering.Reading{ID: "r3", MeterID: "m1", Value: 130, ReadingDate: day(31)})
	repo.AddReading(metering.Reading{ID: "r1", MeterID: "m1", Value: 100, ReadingDate: day(1)})
	repo.AddReading(metering.Reading{ID: "r2", MeterID: "m1", Value: 110, ReadingDate: day(15)})
	repo.AddReading(metering.Reading{ID: "n1", MeterID: "m1", Value: 50, ReadingDate: day(15), Zone: "night"})

	ctx := context.Background()
	got, err := repo.LatestAtOrBefore(ctx, "m1", "", day(20))
	if err != nil || got == nil || got.ID != "r2" {
		t.Fatalf("latest = %+v, %v", got, err)
	}
	got, err = repo.EarliestAtOrAfter(ctx, "m1", "", day(16))
	if err != nil || got == nil || got.ID != "r3" {
		t.Fatalf("earliest = %+v, %v", got, err)
	}
	got, err = repo.EarliestAtOrAfter(ctx, "m1", "", day(31).Add(time.Second))
	if err != nil || got != nil {
		t.Fatalf("expected no reading, got %+v", got)
	}
	got, err = repo.LatestAtOrBefore(ctx, "m1", "night", day(31))
	if err != nil || got == nil || got.ID != "n1" {
		t.Fatalf("zoned latest = %+v, %v", got, err)
	}

	zones, err := repo.ZonesInPeriod(ctx, "m1", day(1), day(31))
	if err != nil || len(zones) != 1 || zones[0] != "night" {
		t.Fatalf("zones = %v, %v", zones, err)
	}
}

func TestListByPropertyOrdered(t *testing.T) {
	repo := NewRepository()
	repo.AddMeter(metering.Meter{ID: "m2", PropertyID: "p1"})
	repo.AddMeter(metering.Meter{ID: "m1", PropertyID: "p1"})
	repo.AddMeter(metering.Meter{ID: "m3", PropertyID: "p2"})

	meters, err := repo.ListByProperty(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(meters) != 2 || meters[0].ID != "m1" || meters[1].ID != "m2" {
		t.Fatalf("unexpected meters: %+v", meters)
	}
}
