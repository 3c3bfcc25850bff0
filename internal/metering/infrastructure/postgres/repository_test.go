package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metering "utility-billing/internal/metering/domain"
)

func TestListByProperty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM meters").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "type", "supports_zones", "serial_number"}).
			AddRow("m-1", "p-1", "electricity", true, "EL-001").
			AddRow("m-2", "p-1", "water_cold", false, nil))

	meters, err := NewRepository(db).ListByProperty(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, meters, 2)
	assert.Equal(t, metering.Electricity, meters[0].Type)
	assert.True(t, meters[0].SupportsZones)
	assert.Equal(t, "", meters[1].SerialNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAtOrBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("reading_date <= \\$3").
		WithArgs("m-1", "night", at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meter_id", "value", "reading_date", "zone"}).
			AddRow("r-1", "m-1", 1200.5, at.AddDate(0, 0, -1), "night"))
	mock.ExpectQuery("reading_date >= \\$3").
		WithArgs("m-1", "", at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meter_id", "value", "reading_date", "zone"}))

	repo := NewRepository(db)
	reading, err := repo.LatestAtOrBefore(context.Background(), "m-1", "night", at)
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, "night", reading.Zone)
	assert.Equal(t, 1200.5, reading.Value)

	reading, err = repo.EarliestAtOrAfter(context.Background(), "m-1", "", at)
	require.NoError(t, err)
	assert.Nil(t, reading)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestZonesInPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	mock.ExpectQuery("SELECT DISTINCT zone").
		WithArgs("m-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"zone"}).AddRow("day").AddRow("night"))

	zones, err := NewRepository(db).ZonesInPeriod(context.Background(), "m-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"day", "night"}, zones)
}
