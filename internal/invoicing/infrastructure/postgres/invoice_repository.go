package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	invoicing "utility-billing/internal/invoicing/domain"
)

// InvoiceRepository persists invoices and their items.
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// CreateWithItems inserts the invoice and items in one transaction.
func (r *InvoiceRepository) CreateWithItems(ctx context.Context, inv *invoicing.Invoice) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	if inv == nil {
		return errors.New("invoice repo: nil invoice")
	}
	snapshot, err := json.Marshal(inv.SnapshotData)
	if err != nil {
		return fmt.Errorf("invoice repo: encode snapshot: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO invoices (
	id, tenant_renter_id, property_id, billing_period_start, billing_period_end, status,
	total_amount, due_date, snapshot_data, snapshot_created_at, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`,
		inv.ID, inv.TenantRenterID, inv.PropertyID, inv.BillingPeriodStart, inv.BillingPeriodEnd, string(inv.Status),
		inv.TotalAmount, inv.DueDate, snapshot, inv.SnapshotCreatedAt, inv.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, item := range inv.Items {
		itemSnapshot, err := json.Marshal(item.MeterReadingSnapshot)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("invoice repo: encode item snapshot: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO invoice_items (
	invoice_id, position, description, quantity, unit, unit_price, total, meter_reading_snapshot
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			inv.ID, item.Position, item.Description, item.Quantity, item.Unit, item.UnitPrice, item.Total, itemSnapshot)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches an invoice without items.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*invoicing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_renter_id, property_id, billing_period_start, billing_period_end, status,
	total_amount, due_date, snapshot_data, snapshot_created_at, snapshot_hash, finalized_at, created_at
FROM invoices
WHERE id = $1
LIMIT 1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: %s", invoicing.ErrInvoiceNotFound, id)
	}
	return inv, nil
}

// ListItems returns items of an invoice in position order.
func (r *InvoiceRepository) ListItems(ctx context.Context, invoiceID string) ([]invoicing.InvoiceItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT invoice_id, position, description, quantity, unit, unit_price, total, meter_reading_snapshot
FROM invoice_items
WHERE invoice_id = $1
ORDER BY position ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []invoicing.InvoiceItem
	for rows.Next() {
		var item invoicing.InvoiceItem
		var snapshot []byte
		if err := rows.Scan(&item.InvoiceID, &item.Position, &item.Description, &item.Quantity,
			&item.Unit, &item.UnitPrice, &item.Total, &snapshot); err != nil {
			return nil, err
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &item.MeterReadingSnapshot); err != nil {
				return nil, fmt.Errorf("invoice repo: decode item snapshot: %w", err)
			}
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkFinalized finalizes a draft invoice. Zero affected rows means the
// invoice is missing or no longer a draft.
func (r *InvoiceRepository) MarkFinalized(ctx context.Context, id, hash string, finalizedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $1, snapshot_hash = $2, finalized_at = $3
WHERE id = $4 AND status = $5`, string(invoicing.StatusFinalized), hash, finalizedAt, id, string(invoicing.StatusDraft))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return invoicing.ErrInvoiceAlreadyFinalized
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*invoicing.Invoice, error) {
	var inv invoicing.Invoice
	var status string
	var snapshot []byte
	var hash sql.NullString
	var finalizedAt sql.NullTime
	err := row.Scan(
		&inv.ID,
		&inv.TenantRenterID,
		&inv.PropertyID,
		&inv.BillingPeriodStart,
		&inv.BillingPeriodEnd,
		&status,
		&inv.TotalAmount,
		&inv.DueDate,
		&snapshot,
		&inv.SnapshotCreatedAt,
		&hash,
		&finalizedAt,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	inv.Status = invoicing.Status(status)
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &inv.SnapshotData); err != nil {
			return nil, fmt.Errorf("invoice repo: decode snapshot: %w", err)
		}
	}
	if hash.Valid {
		inv.SnapshotHash = hash.String
	}
	if finalizedAt.Valid {
		at := finalizedAt.Time.UTC()
		inv.FinalizedAt = &at
	}
	inv.BillingPeriodStart = inv.BillingPeriodStart.UTC()
	inv.BillingPeriodEnd = inv.BillingPeriodEnd.UTC()
	inv.DueDate = inv.DueDate.UTC()
	inv.SnapshotCreatedAt = inv.SnapshotCreatedAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	return &inv, nil
}
