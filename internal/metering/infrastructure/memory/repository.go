package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	metering "utility-billing/internal/metering/domain"
)

// Repository is an in-memory meter and reading store.
type Repository struct {
	mu       sync.RWMutex
	meters   map[string]metering.Meter
	readings map[string][]metering.Reading
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		meters:   make(map[string]metering.Meter),
		readings: make(map[string][]metering.Reading),
	}
}

// AddMeter stores a meter.
func (r *Repository) AddMeter(m metering.Meter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meters[m.ID] = m
}

// AddReading stores a reading.
func (r *Repository) AddReading(reading metering.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.readings[reading.MeterID], reading)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ReadingDate.Equal(list[j].ReadingDate) {
			return list[i].ID < list[j].ID
		}
		return list[i].ReadingDate.Before(list[j].ReadingDate)
	})
	r.readings[reading.MeterID] = list
}

// ListByProperty returns the property's meters ordered by id.
func (r *Repository) ListByProperty(ctx context.Context, propertyID string) ([]metering.Meter, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []metering.Meter
	for _, m := range r.meters {
		if m.PropertyID == propertyID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LatestAtOrBefore implements metering.ReadingStore.
func (r *Repository) LatestAtOrBefore(ctx context.Context, meterID, zone string, at time.Time) (*metering.Reading, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.readings[meterID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Zone == zone && !list[i].ReadingDate.After(at) {
			found := list[i]
			return &found, nil
		}
	}
	return nil, nil
}

// EarliestAtOrAfter implements metering.ReadingStore.
func (r *Repository) EarliestAtOrAfter(ctx context.Context, meterID, zone string, at time.Time) (*metering.Reading, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reading := range r.readings[meterID] {
		if reading.Zone == zone && !reading.ReadingDate.Before(at) {
			found := reading
			return &found, nil
		}
	}
	return nil, nil
}

// ZonesInPeriod implements metering.ReadingStore.
func (r *Repository) ZonesInPeriod(ctx context.Context, meterID string, from, to time.Time) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var zones []string
	for _, reading := range r.readings[meterID] {
		if reading.Zone == "" || reading.ReadingDate.Before(from) || reading.ReadingDate.After(to) {
			continue
		}
		if _, ok := seen[reading.Zone]; ok {
			continue
		}
		seen[reading.Zone] = struct{}{}
		zones = append(zones, reading.Zone)
	}
	sort.Strings(zones)
	return zones, nil
}
