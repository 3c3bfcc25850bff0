package circulation

import (
	"errors"
	"fmt"
)

// ErrInvalidBuilding is wrapped by every building validation failure.
var ErrInvalidBuilding = errors.New("circulation: invalid building")

// ValidationError describes why a building cannot be calculated.
type ValidationError struct {
	BuildingID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("circulation: building %s: %s %s", e.BuildingID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidBuilding }

// CalculationType distinguishes the two seasonal calculation paths.
type CalculationType string

const (
	Summer CalculationType = "summer"
	Winter CalculationType = "winter"
)

// DistributionMethod selects how a building cost is shared between properties.
type DistributionMethod string

const (
	DistributeEqual DistributionMethod = "equal"
	DistributeArea  DistributionMethod = "area"
)

// Valid reports whether m is a known method.
func (m DistributionMethod) Valid() bool {
	return m == DistributeEqual || m == DistributeArea
}
