package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	property "utility-billing/internal/property/domain"
)

// Repository reads renters, properties and buildings from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetRenter implements property.Reader.
func (r *Repository) GetRenter(ctx context.Context, id string) (property.Renter, error) {
	if r == nil || r.db == nil {
		return property.Renter{}, errors.New("property repo: nil db")
	}
	var renter property.Renter
	var propertyID sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT id, property_id
FROM renters
WHERE id = $1`, id).Scan(&renter.ID, &propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return property.Renter{}, fmt.Errorf("%w: %s", property.ErrRenterNotFound, id)
		}
		return property.Renter{}, err
	}
	renter.PropertyID = propertyID.String
	return renter, nil
}

// GetProperty implements property.Reader.
func (r *Repository) GetProperty(ctx context.Context, id string) (property.Property, error) {
	if r == nil || r.db == nil {
		return property.Property{}, errors.New("property repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, area_sqm, building_id
FROM properties
WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return property.Property{}, fmt.Errorf("%w: %s", property.ErrPropertyNotFound, id)
		}
		return property.Property{}, err
	}
	return p, nil
}

// GetBuilding implements property.Reader.
func (r *Repository) GetBuilding(ctx context.Context, id string) (property.Building, error) {
	if r == nil || r.db == nil {
		return property.Building{}, errors.New("property repo: nil db")
	}
	var b property.Building
	var average sql.NullFloat64
	var calculated sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT id, total_apartments, gyvatukas_summer_average, gyvatukas_last_calculated
FROM buildings
WHERE id = $1`, id).Scan(&b.ID, &b.TotalApartments, &average, &calculated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return property.Building{}, fmt.Errorf("%w: %s", property.ErrBuildingNotFound, id)
		}
		return property.Building{}, err
	}
	if average.Valid {
		v := average.Float64
		b.GyvatukasSummerAverage = &v
	}
	if calculated.Valid {
		v := calculated.Time.UTC()
		b.GyvatukasLastCalculated = &v
	}
	return b, nil
}

// ListPropertiesOfBuilding implements property.Reader.
func (r *Repository) ListPropertiesOfBuilding(ctx context.Context, buildingID string) ([]property.Property, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, area_sqm, building_id
FROM properties
WHERE building_id = $1
ORDER BY id ASC`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []property.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateSummerAverage implements property.BuildingWriter.
func (r *Repository) UpdateSummerAverage(ctx context.Context, buildingID string, average float64, calculatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE buildings
SET gyvatukas_summer_average = $1, gyvatukas_last_calculated = $2
WHERE id = $3`, average, calculatedAt, buildingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", property.ErrBuildingNotFound, buildingID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (property.Property, error) {
	var p property.Property
	var area sql.NullFloat64
	var building sql.NullString
	if err := row.Scan(&p.ID, &area, &building); err != nil {
		return property.Property{}, err
	}
	p.AreaSqm = area.Float64
	p.BuildingID = building.String
	return p, nil
}
