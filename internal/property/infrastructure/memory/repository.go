package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	property "utility-billing/internal/property/domain"
)

// Repository is an in-memory renter/property/building store.
type Repository struct {
	mu         sync.RWMutex
	renters    map[string]property.Renter
	properties map[string]property.Property
	buildings  map[string]property.Building
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		renters:    make(map[string]property.Renter),
		properties: make(map[string]property.Property),
		buildings:  make(map[string]property.Building),
	}
}

// AddRenter stores a renter.
func (r *Repository) AddRenter(renter property.Renter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renters[renter.ID] = renter
}

// AddProperty stores a property.
func (r *Repository) AddProperty(p property.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[p.ID] = p
}

// AddBuilding stores a building.
func (r *Repository) AddBuilding(b property.Building) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buildings[b.ID] = cloneBuilding(b)
}

// GetRenter implements property.Reader.
func (r *Repository) GetRenter(ctx context.Context, id string) (property.Renter, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	renter, ok := r.renters[id]
	if !ok {
		return property.Renter{}, fmt.Errorf("%w: %s", property.ErrRenterNotFound, id)
	}
	return renter, nil
}

// GetProperty implements property.Reader.
func (r *Repository) GetProperty(ctx context.Context, id string) (property.Property, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.properties[id]
	if !ok {
		return property.Property{}, fmt.Errorf("%w: %s", property.ErrPropertyNotFound, id)
	}
	return p, nil
}

// GetBuilding implements property.Reader.
func (r *Repository) GetBuilding(ctx context.Context, id string) (property.Building, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buildings[id]
	if !ok {
		return property.Building{}, fmt.Errorf("%w: %s", property.ErrBuildingNotFound, id)
	}
	return cloneBuilding(b), nil
}

// ListPropertiesOfBuilding returns the building's properties ordered by id.
func (r *Repository) ListPropertiesOfBuilding(ctx context.Context, buildingID string) ([]property.Property, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []property.Property
	for _, p := range r.properties {
		if p.BuildingID == buildingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateSummerAverage implements property.BuildingWriter.
func (r *Repository) UpdateSummerAverage(ctx context.Context, buildingID string, average float64, calculatedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buildings[buildingID]
	if !ok {
		return fmt.Errorf("%w: %s", property.ErrBuildingNotFound, buildingID)
	}
	avg := average
	at := calculatedAt
	b.GyvatukasSummerAverage = &avg
	b.GyvatukasLastCalculated = &at
	r.buildings[buildingID] = b
	return nil
}

func cloneBuilding(b property.Building) property.Building {
	if b.GyvatukasSummerAverage != nil {
		v := *b.GyvatukasSummerAverage
		b.GyvatukasSummerAverage = &v
	}
	if b.GyvatukasLastCalculated != nil {
		v := *b.GyvatukasLastCalculated
		b.GyvatukasLastCalculated = &v
	}
	return b
}
