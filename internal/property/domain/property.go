package property

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRenterNotFound is returned for an unknown renter id.
	ErrRenterNotFound = errors.New("property: renter not found")
	// ErrPropertyNotFound is returned for an unknown property id.
	ErrPropertyNotFound = errors.New("property: property not found")
	// ErrBuildingNotFound is returned for an unknown building id.
	ErrBuildingNotFound = errors.New("property: building not found")
)

// Property is a rentable unit. BuildingID is empty for standalone properties.
type Property struct {
	ID         string
	AreaSqm    float64
	BuildingID string
}

// Building groups properties sharing a heating riser.
type Building struct {
	ID                      string
	TotalApartments         int
	GyvatukasSummerAverage  *float64
	GyvatukasLastCalculated *time.Time
}

// Renter is the tenant being billed. PropertyID is empty when unassigned.
type Renter struct {
	ID         string
	PropertyID string
}

// Reader loads renters, properties and buildings.
type Reader interface {
	GetRenter(ctx context.Context, id string) (Renter, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	GetBuilding(ctx context.Context, id string) (Building, error)
	ListPropertiesOfBuilding(ctx context.Context, buildingID string) ([]Property, error)
}

// BuildingWriter stores the circulation summer average.
type BuildingWriter interface {
	UpdateSummerAverage(ctx context.Context, buildingID string, average float64, calculatedAt time.Time) error
}
