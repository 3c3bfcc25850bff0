package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"utility-billing/internal/audit"
	invoicing "utility-billing/internal/invoicing/domain"
	"utility-billing/internal/observability/metrics"
)

// Service handles invoice lifecycle workflows.
type Service struct {
	repo   invoicing.Repository
	audit  audit.Logger
	actor  string
	logger *zap.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceAudit records finalizations.
func WithServiceAudit(logger audit.Logger, actor string) ServiceOption {
	return func(s *Service) {
		s.audit = logger
		if actor != "" {
			s.actor = actor
		}
	}
}

// WithServiceClock overrides the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service.
func NewService(repo invoicing.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("invoice service: nil repo")
	}
	s := &Service{repo: repo, actor: "system", logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Get returns an invoice with items.
func (s *Service) Get(ctx context.Context, id string) (*invoicing.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// Finalize freezes a draft invoice and computes its snapshot hash.
func (s *Service) Finalize(ctx context.Context, id string) (*invoicing.Invoice, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceFinalize(result, time.Since(start))
	}()

	inv, err := s.Get(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if !inv.IsDraft() {
		result = metrics.ResultError
		return nil, &invoicing.InvoiceAlreadyFinalizedError{InvoiceID: inv.ID, Status: inv.Status}
	}

	hash, err := computeSnapshotHash(inv, inv.Items)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.MarkFinalized(ctx, inv.ID, hash, now); err != nil {
		result = metrics.ResultError
		if errors.Is(err, invoicing.ErrInvoiceAlreadyFinalized) {
			return nil, &invoicing.InvoiceAlreadyFinalizedError{InvoiceID: inv.ID, Status: invoicing.StatusFinalized}
		}
		return nil, err
	}
	inv.Status = invoicing.StatusFinalized
	inv.SnapshotHash = hash
	inv.FinalizedAt = &now

	s.logger.Info("invoice finalized",
		zap.String("invoice_id", inv.ID),
		zap.Float64("total_amount", inv.TotalAmount),
		zap.String("snapshot_hash", hash))
	s.recordAudit(ctx, inv)
	return inv, nil
}

func (s *Service) recordAudit(ctx context.Context, inv *invoicing.Invoice) {
	if s.audit == nil {
		return
	}
	entry, err := audit.NewEntry(s.actor, audit.ActionInvoiceFinalized, audit.ResourceInvoice, inv.ID, map[string]any{
		"snapshot_hash": inv.SnapshotHash,
		"total_amount":  inv.TotalAmount,
	})
	if err == nil {
		err = s.audit.Log(ctx, entry)
	}
	if err != nil {
		s.logger.Error("audit log failed", zap.String("invoice_id", inv.ID), zap.Error(err))
	}
}

// Verify reloads invoice id and checks it against its stored snapshot hash.
// Draft invoices have no hash and never verify.
func (s *Service) Verify(ctx context.Context, id string) (bool, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	ok, err := VerifySnapshot(inv)
	if err != nil {
		return false, err
	}
	if !ok && inv.SnapshotHash != "" {
		s.logger.Warn("invoice snapshot hash mismatch", zap.String("invoice_id", inv.ID))
	}
	return ok, nil
}

// VerifySnapshot reports whether inv still matches its stored hash.
func VerifySnapshot(inv *invoicing.Invoice) (bool, error) {
	if inv == nil || inv.SnapshotHash == "" {
		return false, nil
	}
	hash, err := computeSnapshotHash(inv, inv.Items)
	if err != nil {
		return false, err
	}
	return hash == inv.SnapshotHash, nil
}

func computeSnapshotHash(inv *invoicing.Invoice, items []invoicing.InvoiceItem) (string, error) {
	if inv == nil {
		return "", errors.New("invoice service: nil invoice")
	}
	sorted := make([]invoicing.InvoiceItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	// status changes on finalize and must not affect the hash
	frozen := *inv
	frozen.Status = ""
	payload := struct {
		Invoice *invoicing.Invoice      `json:"invoice"`
		Items   []invoicing.InvoiceItem `json:"items"`
	}{
		Invoice: &frozen,
		Items:   sorted,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
