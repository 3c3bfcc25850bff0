package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	property "utility-billing/internal/property/domain"
)

func TestUpdateSummerAverage(t *testing.T) {
	repo := NewRepository()
	repo.AddBuilding(property.Building{ID: "b1", TotalApartments: 10})

	now := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateSummerAverage(context.Background(), "b1", 152.5, now); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, err := repo.GetBuilding(context.Background(), "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.GyvatukasSummerAverage == nil || *b.GyvatukasSummerAverage != 152.5 {
		t.Fatalf("average not stored: %+v", b)
	}
	*b.GyvatukasSummerAverage = 0
	again, _ := repo.GetBuilding(context.Background(), "b1")
	if *again.GyvatukasSummerAverage != 152.5 {
		t.Fatalf("stored building mutated through returned copy")
	}

	err = repo.UpdateSummerAverage(context.Background(), "missing", 1, now)
	if !errors.Is(err, property.ErrBuildingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPropertiesOfBuilding(t *testing.T) {
	repo := NewRepository()
	repo.AddProperty(property.Property{ID: "p2", BuildingID: "b1", AreaSqm: 50})
	repo.AddProperty(property.Property{ID: "p1", BuildingID: "b1", AreaSqm: 70})
	repo.AddProperty(property.Property{ID: "p3", AreaSqm: 40})

	props, err := repo.ListPropertiesOfBuilding(context.Background(), "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(props) != 2 || props[0].ID != "p1" {
		t.Fatalf("unexpected properties: %+v", props)
	}
	if _, err := repo.GetRenter(context.Background(), "nobody"); !errors.Is(err, property.ErrRenterNotFound) {
		t.Fatalf("expected renter not found, got %v", err)
	}
}
