package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	tariff "utility-billing/internal/tariff/domain"
)

const (
	defaultTariffsTable   = "tariffs"
	defaultProvidersTable = "providers"
)

// Repository loads tariffs and providers from Postgres.
type Repository struct {
	db             *sql.DB
	logger         *zap.Logger
	tariffsTable   string
	providersTable string
}

// Option configures the repository.
type Option func(*Repository)

// WithTariffsTable overrides the tariffs table name.
func WithTariffsTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.tariffsTable = table
		}
	}
}

// WithProvidersTable overrides the providers table name.
func WithProvidersTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.providersTable = table
		}
	}
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	r := &Repository{
		db:             db,
		logger:         zap.NewNop(),
		tariffsTable:   defaultTariffsTable,
		providersTable: defaultProvidersTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListByProvider loads all tariffs of a provider. Configurations that fail
// validation are still returned and logged; pricing decides how to treat them.
func (r *Repository) ListByProvider(ctx context.Context, providerID string) ([]tariff.Tariff, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tariff repo: nil db")
	}
	if providerID == "" {
		return nil, tariff.ErrEmptyProviderID
	}
	query := fmt.Sprintf(`
SELECT id, provider_id, name, active_from, active_until, configuration
FROM %s
WHERE provider_id = $1
ORDER BY id ASC`, r.tariffsTable)

	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []tariff.Tariff
	for rows.Next() {
		var t tariff.Tariff
		var until sql.NullTime
		var raw []byte
		if err := rows.Scan(&t.ID, &t.ProviderID, &t.Name, &t.ActiveFrom, &until, &raw); err != nil {
			return nil, err
		}
		cfg, err := tariff.ParseConfiguration(raw)
		if err != nil {
			return nil, fmt.Errorf("tariff %s: %w", t.ID, err)
		}
		if err := cfg.Validate(); err != nil {
			r.logger.Warn("tariff configuration failed validation",
				zap.String("tariff_id", t.ID),
				zap.Error(err),
			)
		}
		t.Configuration = cfg
		t.ActiveFrom = t.ActiveFrom.UTC()
		if until.Valid {
			u := until.Time.UTC()
			t.ActiveUntil = &u
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ProviderForService returns the provider serving serviceType.
func (r *Repository) ProviderForService(ctx context.Context, serviceType string) (tariff.Provider, error) {
	if r == nil || r.db == nil {
		return tariff.Provider{}, errors.New("tariff repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, service_type
FROM %s
WHERE service_type = $1
ORDER BY id ASC
LIMIT 1`, r.providersTable)

	var p tariff.Provider
	if err := r.db.QueryRowContext(ctx, query, serviceType).Scan(&p.ID, &p.Name, &p.ServiceType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tariff.Provider{}, fmt.Errorf("%w: service %s", tariff.ErrProviderNotFound, serviceType)
		}
		return tariff.Provider{}, err
	}
	return p, nil
}
