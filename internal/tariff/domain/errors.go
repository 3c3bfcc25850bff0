package tariff

import "errors"

var (
	// ErrNotFound is returned when no tariff is active at the requested time.
	ErrNotFound = errors.New("tariff: no active tariff")
	// ErrProviderNotFound is returned when no provider serves a service type.
	ErrProviderNotFound = errors.New("tariff: provider not found")
	// ErrUnsupportedType is returned in strict mode for a type with no strategy.
	ErrUnsupportedType = errors.New("tariff: unsupported configuration type")
	// ErrInvalidConfiguration is returned for malformed tariff configurations.
	ErrInvalidConfiguration = errors.New("tariff: invalid configuration")
	// ErrEmptyProviderID is returned when a lookup has no provider id.
	ErrEmptyProviderID = errors.New("tariff: empty provider id")
)
