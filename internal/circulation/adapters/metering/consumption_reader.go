// Package metering adapts meter readings to circulation consumption totals.
package metering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	metering "utility-billing/internal/metering/domain"
)

// ConsumptionReader sums bracketed meter deltas.
type ConsumptionReader struct {
	meters   metering.MeterStore
	readings metering.ReadingStore
}

// NewConsumptionReader constructs a reader.
func NewConsumptionReader(meters metering.MeterStore, readings metering.ReadingStore) (*ConsumptionReader, error) {
	if meters == nil {
		return nil, errors.New("consumption reader: nil meter store")
	}
	if readings == nil {
		return nil, errors.New("consumption reader: nil reading store")
	}
	return &ConsumptionReader{meters: meters, readings: readings}, nil
}

// Consumption returns the summed delta of every meterType meter on propertyIDs
// between from and to. Meters without both bracketing readings, or with a
// non-positive delta, contribute nothing.
func (r *ConsumptionReader) Consumption(ctx context.Context, propertyIDs []string, meterType metering.MeterType, from, to time.Time) (float64, error) {
	total := decimal.Zero
	for _, propertyID := range propertyIDs {
		meters, err := r.meters.ListByProperty(ctx, propertyID)
		if err != nil {
			return 0, fmt.Errorf("list meters of %s: %w", propertyID, err)
		}
		for _, meter := range meters {
			if meter.Type != meterType {
				continue
			}
			delta, err := r.meterDelta(ctx, meter.ID, from, to)
			if err != nil {
				return 0, err
			}
			if delta > 0 {
				total = total.Add(decimal.NewFromFloat(delta))
			}
		}
	}
	return total.InexactFloat64(), nil
}

func (r *ConsumptionReader) meterDelta(ctx context.Context, meterID string, from, to time.Time) (float64, error) {
	start, err := r.readings.LatestAtOrBefore(ctx, meterID, "", from)
	if err != nil {
		return 0, fmt.Errorf("start reading of meter %s: %w", meterID, err)
	}
	if start == nil {
		return 0, nil
	}
	end, err := r.readings.EarliestAtOrAfter(ctx, meterID, "", to)
	if err != nil {
		return 0, fmt.Errorf("end reading of meter %s: %w", meterID, err)
	}
	if end == nil {
		end, err = r.readings.LatestAtOrBefore(ctx, meterID, "", to)
		if err != nil {
			return 0, fmt.Errorf("end reading of meter %s: %w", meterID, err)
		}
		if end == nil || !end.ReadingDate.After(start.ReadingDate) {
			return 0, nil
		}
	}
	return decimal.NewFromFloat(end.Value).Sub(decimal.NewFromFloat(start.Value)).InexactFloat64(), nil
}
