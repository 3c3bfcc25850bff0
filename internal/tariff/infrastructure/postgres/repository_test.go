package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tariff "utility-billing/internal/tariff/domain"
)

func TestListByProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "provider_id", "name", "active_from", "active_until", "configuration"}).
		AddRow("t-1", "p-1", "Flat 2024", from, until, []byte(`{"type":"flat","rate":0.15}`)).
		AddRow("t-2", "p-1", "Night saver", from, nil, []byte(`{"type":"time_of_use","zones":[{"id":"day","start":"07:00","end":"23:00","rate":0.2}]}`))
	mock.ExpectQuery("SELECT id, provider_id, name, active_from, active_until, configuration").
		WithArgs("p-1").
		WillReturnRows(rows)

	repo := NewRepository(db)
	got, err := repo.ListByProvider(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, tariff.TypeFlat, got[0].Configuration.Type)
	assert.Equal(t, 0.15, got[0].Configuration.Rate)
	require.NotNil(t, got[0].ActiveUntil)
	assert.True(t, got[0].ActiveUntil.Equal(until))

	assert.Nil(t, got[1].ActiveUntil)
	assert.Len(t, got[1].Configuration.Zones, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByProviderRejectsMalformedDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "provider_id", "name", "active_from", "active_until", "configuration"}).
		AddRow("t-1", "p-1", "Broken", time.Now(), nil, []byte(`{"type":`))
	mock.ExpectQuery("SELECT id").WithArgs("p-1").WillReturnRows(rows)

	_, err = NewRepository(db).ListByProvider(context.Background(), "p-1")
	assert.ErrorIs(t, err, tariff.ErrInvalidConfiguration)
}

func TestProviderForService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, service_type").
		WithArgs("electricity").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "service_type"}).AddRow("p-1", "Ignitis", "electricity"))
	mock.ExpectQuery("SELECT id, name, service_type").
		WithArgs("gas").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "service_type"}))

	repo := NewRepository(db, WithProvidersTable("providers"))
	p, err := repo.ProviderForService(context.Background(), "electricity")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)

	_, err = repo.ProviderForService(context.Background(), "gas")
	assert.True(t, errors.Is(err, tariff.ErrProviderNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilDB(t *testing.T) {
	var repo *Repository
	_, err := repo.ListByProvider(context.Background(), "p-1")
	assert.Error(t, err)
}
