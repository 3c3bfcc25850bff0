package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicing "utility-billing/internal/invoicing/domain"
	tariff "utility-billing/internal/tariff/domain"
)

func TestRepositoryIsolatesStoredCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	cfg := tariff.Configuration{Type: tariff.TypeFlat, Rate: 0.2}
	inv := &invoicing.Invoice{
		ID:     "inv-1",
		Status: invoicing.StatusDraft,
		Items: []invoicing.InvoiceItem{
			{InvoiceID: "inv-1", Position: 2, Description: "Gas", Total: 2},
			{InvoiceID: "inv-1", Position: 1, Description: "Electricity", Total: 1,
				MeterReadingSnapshot: invoicing.MeterReadingSnapshot{TariffConfig: &cfg}},
		},
	}
	require.NoError(t, repo.CreateWithItems(ctx, inv))
	cfg.Rate = 9
	inv.Items[0].Description = "changed"

	items, err := repo.ListItems(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Electricity", items[0].Description)
	assert.Equal(t, 0.2, items[0].MeterReadingSnapshot.TariffConfig.Rate)
	assert.Equal(t, "Gas", items[1].Description)

	assert.Error(t, repo.CreateWithItems(ctx, inv))
}

func TestMarkFinalizedOnlyOnce(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateWithItems(ctx, &invoicing.Invoice{ID: "inv-1", Status: invoicing.StatusDraft}))

	at := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkFinalized(ctx, "inv-1", "hash", at))
	assert.ErrorIs(t, repo.MarkFinalized(ctx, "inv-1", "hash", at), invoicing.ErrInvoiceAlreadyFinalized)

	stored, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, invoicing.StatusFinalized, stored.Status)
	assert.Equal(t, "hash", stored.SnapshotHash)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, invoicing.ErrInvoiceNotFound)
}
