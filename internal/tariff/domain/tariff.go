package tariff

import "time"

// Tariff is a provider's pricing rule set with a validity window.
type Tariff struct {
	ID            string
	ProviderID    string
	Name          string
	ActiveFrom    time.Time
	ActiveUntil   *time.Time
	Configuration Configuration
}

// ActiveAt reports whether at falls inside the validity window. Both bounds
// are inclusive and a nil ActiveUntil is open-ended.
func (t Tariff) ActiveAt(at time.Time) bool {
	if t.ActiveFrom.After(at) {
		return false
	}
	if t.ActiveUntil != nil && t.ActiveUntil.Before(at) {
		return false
	}
	return true
}

// Provider supplies one utility service.
type Provider struct {
	ID          string
	Name        string
	ServiceType string
}
