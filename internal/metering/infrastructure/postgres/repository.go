package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	metering "utility-billing/internal/metering/domain"
)

// Repository reads meters and readings from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListByProperty returns the property's meters ordered by id.
func (r *Repository) ListByProperty(ctx context.Context, propertyID string) ([]metering.Meter, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("meter repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, property_id, type, supports_zones, serial_number
FROM meters
WHERE property_id = $1
ORDER BY id ASC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []metering.Meter
	for rows.Next() {
		var m metering.Meter
		var typ string
		var serial sql.NullString
		if err := rows.Scan(&m.ID, &m.PropertyID, &typ, &m.SupportsZones, &serial); err != nil {
			return nil, err
		}
		m.Type = metering.MeterType(typ)
		m.SerialNumber = serial.String
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestAtOrBefore implements metering.ReadingStore.
func (r *Repository) LatestAtOrBefore(ctx context.Context, meterID, zone string, at time.Time) (*metering.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, meter_id, value, reading_date, zone
FROM meter_readings
WHERE meter_id = $1 AND COALESCE(zone, '') = $2 AND reading_date <= $3
ORDER BY reading_date DESC, id DESC
LIMIT 1`, meterID, zone, at)
	return scanReading(row)
}

// EarliestAtOrAfter implements metering.ReadingStore.
func (r *Repository) EarliestAtOrAfter(ctx context.Context, meterID, zone string, at time.Time) (*metering.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, meter_id, value, reading_date, zone
FROM meter_readings
WHERE meter_id = $1 AND COALESCE(zone, '') = $2 AND reading_date >= $3
ORDER BY reading_date ASC, id ASC
LIMIT 1`, meterID, zone, at)
	return scanReading(row)
}

// ZonesInPeriod implements metering.ReadingStore.
func (r *Repository) ZonesInPeriod(ctx context.Context, meterID string, from, to time.Time) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT zone
FROM meter_readings
WHERE meter_id = $1 AND reading_date >= $2 AND reading_date <= $3
	AND zone IS NOT NULL AND zone <> ''
ORDER BY zone ASC`, meterID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []string
	for rows.Next() {
		var zone string
		if err := rows.Scan(&zone); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*metering.Reading, error) {
	var reading metering.Reading
	var zone sql.NullString
	if err := row.Scan(&reading.ID, &reading.MeterID, &reading.Value, &reading.ReadingDate, &zone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reading.Zone = zone.String
	return &reading, nil
}
