package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	invoicing "utility-billing/internal/invoicing/domain"
)

// Repository keeps invoices in memory.
type Repository struct {
	mu       sync.RWMutex
	invoices map[string]invoicing.Invoice
	items    map[string][]invoicing.InvoiceItem
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		invoices: make(map[string]invoicing.Invoice),
		items:    make(map[string][]invoicing.InvoiceItem),
	}
}

// CreateWithItems implements invoicing.Repository.
func (r *Repository) CreateWithItems(ctx context.Context, inv *invoicing.Invoice) error {
	_ = ctx
	if inv == nil {
		return errors.New("invoice repo: nil invoice")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice repo: duplicate id %s", inv.ID)
	}
	stored := cloneInvoice(*inv)
	r.items[inv.ID] = stored.Items
	stored.Items = nil
	r.invoices[inv.ID] = stored
	return nil
}

// GetByID implements invoicing.Repository.
func (r *Repository) GetByID(ctx context.Context, id string) (*invoicing.Invoice, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", invoicing.ErrInvoiceNotFound, id)
	}
	out := cloneInvoice(inv)
	return &out, nil
}

// ListItems implements invoicing.Repository.
func (r *Repository) ListItems(ctx context.Context, invoiceID string) ([]invoicing.InvoiceItem, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := cloneItems(r.items[invoiceID])
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

// MarkFinalized implements invoicing.Repository.
func (r *Repository) MarkFinalized(ctx context.Context, id, hash string, finalizedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return fmt.Errorf("%w: %s", invoicing.ErrInvoiceNotFound, id)
	}
	if inv.Status != invoicing.StatusDraft {
		return invoicing.ErrInvoiceAlreadyFinalized
	}
	at := finalizedAt
	inv.Status = invoicing.StatusFinalized
	inv.SnapshotHash = hash
	inv.FinalizedAt = &at
	r.invoices[id] = inv
	return nil
}

// Count returns the number of stored invoices.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.invoices)
}

func cloneInvoice(inv invoicing.Invoice) invoicing.Invoice {
	inv.Items = cloneItems(inv.Items)
	if inv.FinalizedAt != nil {
		at := *inv.FinalizedAt
		inv.FinalizedAt = &at
	}
	if inv.SnapshotData.Warnings != nil {
		inv.SnapshotData.Warnings = append([]string(nil), inv.SnapshotData.Warnings...)
	}
	return inv
}

func cloneItems(items []invoicing.InvoiceItem) []invoicing.InvoiceItem {
	if items == nil {
		return nil
	}
	out := make([]invoicing.InvoiceItem, len(items))
	for i, item := range items {
		snap := item.MeterReadingSnapshot
		if snap.StartReadingDate != nil {
			d := *snap.StartReadingDate
			snap.StartReadingDate = &d
		}
		if snap.EndReadingDate != nil {
			d := *snap.EndReadingDate
			snap.EndReadingDate = &d
		}
		if snap.TariffConfig != nil {
			cfg := snap.TariffConfig.Clone()
			snap.TariffConfig = &cfg
		}
		item.MeterReadingSnapshot = snap
		out[i] = item
	}
	return out
}
