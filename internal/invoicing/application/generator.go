package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"utility-billing/internal/audit"
	circulationapp "utility-billing/internal/circulation/application"
	invoicing "utility-billing/internal/invoicing/domain"
	metering "utility-billing/internal/metering/domain"
	"utility-billing/internal/money"
	"utility-billing/internal/observability/metrics"
	property "utility-billing/internal/property/domain"
	tariffapp "utility-billing/internal/tariff/application"
	tariff "utility-billing/internal/tariff/domain"
)

const (
	circulationDescription = "Gyvatukas (Hot Water Circulation)"
	fixedFeeSuffix         = " - Fixed Fee"
	monthUnit              = "month"
)

// TariffResolver selects tariffs and prices consumption.
type TariffResolver interface {
	Resolve(ctx context.Context, providerID string, at time.Time) (tariff.Tariff, error)
	CalculateCost(t tariff.Tariff, consumption float64, at time.Time) (float64, error)
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCirculation enables the building circulation line.
func WithCirculation(calc circulationapp.CirculationCalculator) GeneratorOption {
	return func(g *Generator) {
		g.circulation = calc
	}
}

// WithAuditLogger records generated invoices.
func WithAuditLogger(logger audit.Logger, actor string) GeneratorOption {
	return func(g *Generator) {
		g.audit = logger
		if actor != "" {
			g.actor = actor
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator overrides invoice id generation.
func WithIDGenerator(newID func() string) GeneratorOption {
	return func(g *Generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// Generator builds draft invoices from readings and tariffs.
type Generator struct {
	properties  property.Reader
	meters      metering.MeterStore
	readings    metering.ReadingStore
	providers   tariff.ProviderDirectory
	tariffs     TariffResolver
	repo        invoicing.Repository
	circulation circulationapp.CirculationCalculator
	audit       audit.Logger
	actor       string
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewGenerator constructs a generator.
func NewGenerator(
	properties property.Reader,
	meters metering.MeterStore,
	readings metering.ReadingStore,
	providers tariff.ProviderDirectory,
	tariffs TariffResolver,
	repo invoicing.Repository,
	cfg Config,
	opts ...GeneratorOption,
) (*Generator, error) {
	switch {
	case properties == nil:
		return nil, errors.New("invoice generator: nil property reader")
	case meters == nil:
		return nil, errors.New("invoice generator: nil meter store")
	case readings == nil:
		return nil, errors.New("invoice generator: nil reading store")
	case providers == nil:
		return nil, errors.New("invoice generator: nil provider directory")
	case tariffs == nil:
		return nil, errors.New("invoice generator: nil tariff resolver")
	case repo == nil:
		return nil, errors.New("invoice generator: nil invoice repository")
	}
	g := &Generator{
		properties: properties,
		meters:     meters,
		readings:   readings,
		providers:  providers,
		tariffs:    tariffs,
		repo:       repo,
		actor:      "system",
		cfg:        cfg,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// run carries per-call state of one invoice generation.
type run struct {
	renter      property.Renter
	property    property.Property
	periodStart time.Time
	periodEnd   time.Time
	tariffs     map[string]tariff.Tariff
	items       []invoicing.InvoiceItem
	warnings    []string
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// GenerateInvoice builds and stores a draft invoice for renterID.
func (g *Generator) GenerateInvoice(ctx context.Context, renterID string, periodStart, periodEnd time.Time) (*invoicing.Invoice, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceGenerate(result, time.Since(start))
	}()

	inv, err := g.generate(ctx, renterID, periodStart, periodEnd)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return inv, nil
}

func (g *Generator) generate(ctx context.Context, renterID string, periodStart, periodEnd time.Time) (*invoicing.Invoice, error) {
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("%w: period end %s is before start %s", invoicing.ErrInvalidPeriod,
			periodEnd.Format(time.DateOnly), periodStart.Format(time.DateOnly))
	}
	if periodEnd.Sub(periodStart) > maxPeriodDays*24*time.Hour {
		return nil, fmt.Errorf("%w: period exceeds %d days", invoicing.ErrInvalidPeriod, maxPeriodDays)
	}

	renter, err := g.properties.GetRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	if renter.PropertyID == "" {
		return nil, invoicing.NoAssociatedProperty(renter.ID)
	}
	prop, err := g.properties.GetProperty(ctx, renter.PropertyID)
	if err != nil {
		return nil, err
	}
	meters, err := g.meters.ListByProperty(ctx, prop.ID)
	if err != nil {
		return nil, fmt.Errorf("list meters of %s: %w", prop.ID, err)
	}
	if len(meters) == 0 {
		return nil, invoicing.NoMeters(prop.ID)
	}

	r := &run{
		renter:      renter,
		property:    prop,
		periodStart: periodStart,
		periodEnd:   periodEnd,
		tariffs:     make(map[string]tariff.Tariff),
	}

	var firstMissing error
	billed := 0
	hasHeating := false
	for _, meter := range meters {
		if meter.Type == metering.Heating {
			hasHeating = true
		}
		items, err := g.meterItems(ctx, r, meter)
		var missing *invoicing.MissingMeterReadingError
		if errors.As(err, &missing) {
			g.logger.Warn("missing meter reading",
				zap.String("meter_id", meter.ID),
				zap.String("meter_type", string(meter.Type)),
				zap.Error(err))
			if len(meters) == 1 {
				return nil, err
			}
			if firstMissing == nil {
				firstMissing = err
			}
			r.warn("meter %s skipped: %v", meter.ID, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		billed++
		r.items = append(r.items, items...)
	}
	if billed == 0 && firstMissing != nil {
		return nil, firstMissing
	}

	if prop.BuildingID != "" && hasHeating && g.circulation != nil {
		g.circulationItem(ctx, r)
	}

	now := g.now().UTC()
	inv := &invoicing.Invoice{
		ID:                 g.newID(),
		TenantRenterID:     renter.ID,
		PropertyID:         prop.ID,
		BillingPeriodStart: periodStart,
		BillingPeriodEnd:   periodEnd,
		Status:             invoicing.StatusDraft,
		DueDate:            g.cfg.dueDate(periodEnd),
		SnapshotCreatedAt:  now,
		CreatedAt:          now,
	}
	totals := make([]float64, 0, len(r.items))
	for i := range r.items {
		r.items[i].InvoiceID = inv.ID
		r.items[i].Position = i + 1
		totals = append(totals, r.items[i].Total)
	}
	inv.Items = r.items
	inv.TotalAmount = money.Round2(money.Sum(totals...))
	inv.SnapshotData = invoicing.SnapshotData{
		RenterID:        renter.ID,
		PropertyID:      prop.ID,
		BuildingID:      prop.BuildingID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		WaterSupplyRate: g.cfg.WaterSupplyRate,
		WaterSewageRate: g.cfg.WaterSewageRate,
		WaterFixedFee:   g.cfg.WaterFixedFee,
		DueDays:         g.cfg.DueDays,
		Warnings:        r.warnings,
		ItemCount:       len(r.items),
	}

	if err := g.repo.CreateWithItems(ctx, inv); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}
	g.logger.Info("invoice generated",
		zap.String("invoice_id", inv.ID),
		zap.String("renter_id", renter.ID),
		zap.String("period_start", periodStart.Format(time.DateOnly)),
		zap.String("period_end", periodEnd.Format(time.DateOnly)),
		zap.Float64("total_amount", inv.TotalAmount),
		zap.Int("items_count", len(inv.Items)))
	g.recordAudit(ctx, inv)
	return inv, nil
}

func (g *Generator) meterItems(ctx context.Context, r *run, meter metering.Meter) ([]invoicing.InvoiceItem, error) {
	zones := []string{""}
	if meter.SupportsZones {
		found, err := g.readings.ZonesInPeriod(ctx, meter.ID, r.periodStart, r.periodEnd)
		if err != nil {
			return nil, fmt.Errorf("zones of meter %s: %w", meter.ID, err)
		}
		if len(found) > 0 {
			zones = found
		}
	}

	var items []invoicing.InvoiceItem
	for _, zone := range zones {
		item, ok, err := g.consumptionItem(ctx, r, meter, zone)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	if meter.Type.IsWater() {
		items = append(items, invoicing.InvoiceItem{
			Description: meter.Type.Label() + fixedFeeSuffix,
			Quantity:    1,
			Unit:        monthUnit,
			UnitPrice:   g.cfg.WaterFixedFee,
			Total:       money.Round2(g.cfg.WaterFixedFee),
			MeterReadingSnapshot: invoicing.MeterReadingSnapshot{
				MeterID:     meter.ID,
				MeterSerial: meter.SerialNumber,
				MeterType:   string(meter.Type),
				FeeType:     invoicing.FeeTypeFixedMonthly,
			},
		})
	}
	return items, nil
}

func (g *Generator) consumptionItem(ctx context.Context, r *run, meter metering.Meter, zone string) (invoicing.InvoiceItem, bool, error) {
	startReading, err := g.readings.LatestAtOrBefore(ctx, meter.ID, zone, r.periodStart)
	if err != nil {
		return invoicing.InvoiceItem{}, false, fmt.Errorf("start reading of meter %s: %w", meter.ID, err)
	}
	if startReading == nil {
		return invoicing.InvoiceItem{}, false, &invoicing.MissingMeterReadingError{MeterID: meter.ID, Zone: zone, Boundary: "start"}
	}
	endReading, err := g.readings.EarliestAtOrAfter(ctx, meter.ID, zone, r.periodEnd)
	if err != nil {
		return invoicing.InvoiceItem{}, false, fmt.Errorf("end reading of meter %s: %w", meter.ID, err)
	}
	if endReading == nil {
		return invoicing.InvoiceItem{}, false, &invoicing.MissingMeterReadingError{MeterID: meter.ID, Zone: zone, Boundary: "end"}
	}

	consumption := endReading.Value - startReading.Value
	if consumption < 0 {
		g.logger.Warn("negative consumption clamped to zero",
			zap.String("meter_id", meter.ID),
			zap.String("zone", zone),
			zap.Float64("start_value", startReading.Value),
			zap.Float64("end_value", endReading.Value))
		r.warn("meter %s: end reading %.3f below start reading %.3f", meter.ID, endReading.Value, startReading.Value)
		consumption = 0
	}
	if consumption == 0 {
		return invoicing.InvoiceItem{}, false, nil
	}

	t, err := g.tariffFor(ctx, r, meter.Type)
	if err != nil {
		return invoicing.InvoiceItem{}, false, err
	}

	item := invoicing.InvoiceItem{
		Description: meter.Type.Label(),
		Quantity:    money.Round2(consumption),
		Unit:        meter.Type.Unit(),
	}
	if zone != "" {
		item.Description += " (" + zone + ")"
	}

	if meter.Type.IsWater() {
		rate := g.cfg.WaterSupplyRate + g.cfg.WaterSewageRate
		item.UnitPrice = money.Round(rate, 4)
		item.Total = money.Round2(consumption * rate)
	} else {
		at := g.pricingTime(t, zone, r.periodEnd)
		cost, err := g.tariffs.CalculateCost(t, consumption, at)
		if err != nil {
			return invoicing.InvoiceItem{}, false, err
		}
		item.UnitPrice = money.Round(cost/consumption, 4)
		item.Total = money.Round2(cost)
	}

	cfg := t.Configuration.Clone()
	startDate := startReading.ReadingDate
	endDate := endReading.ReadingDate
	item.MeterReadingSnapshot = invoicing.MeterReadingSnapshot{
		MeterID:           meter.ID,
		MeterSerial:       meter.SerialNumber,
		MeterType:         string(meter.Type),
		StartReadingID:    startReading.ID,
		StartReadingValue: startReading.Value,
		StartReadingDate:  &startDate,
		EndReadingID:      endReading.ID,
		EndReadingValue:   endReading.Value,
		EndReadingDate:    &endDate,
		Zone:              zone,
		TariffID:          t.ID,
		TariffName:        t.Name,
		TariffConfig:      &cfg,
	}
	return item, true, nil
}

// pricingTime picks the instant a zoned register is priced at.
func (g *Generator) pricingTime(t tariff.Tariff, zone string, periodEnd time.Time) time.Time {
	if zone == "" || t.Configuration.Type != tariff.TypeTimeOfUse {
		return periodEnd
	}
	at, err := tariffapp.ZoneStart(t.Configuration, zone, periodEnd)
	if err != nil {
		g.logger.Warn("reading zone not defined by tariff, pricing at period end",
			zap.String("tariff_id", t.ID),
			zap.String("zone", zone))
		return periodEnd
	}
	return at
}

func (g *Generator) tariffFor(ctx context.Context, r *run, meterType metering.MeterType) (tariff.Tariff, error) {
	provider, err := g.providers.ProviderForService(ctx, string(meterType))
	if err != nil {
		return tariff.Tariff{}, err
	}
	if t, ok := r.tariffs[provider.ID]; ok {
		return t, nil
	}
	t, err := g.tariffs.Resolve(ctx, provider.ID, r.periodEnd)
	if err != nil {
		return tariff.Tariff{}, err
	}
	r.tariffs[provider.ID] = t
	return t, nil
}

// circulationItem appends the building circulation share. Failures omit the
// line and are recorded as warnings.
func (g *Generator) circulationItem(ctx context.Context, r *run) {
	buildingID := r.property.BuildingID
	fail := func(stage string, err error) {
		g.logger.Warn("gyvatukas calculation failed",
			zap.String("building_id", buildingID),
			zap.String("stage", stage),
			zap.Error(err))
		r.warn("gyvatukas for building %s omitted: %v", buildingID, err)
	}

	building, err := g.properties.GetBuilding(ctx, buildingID)
	if err != nil {
		fail("building", err)
		return
	}

	energy, err := g.circulation.Calculate(ctx, building, r.periodEnd)
	if err != nil {
		fail("calculate", err)
		return
	}
	if energy <= 0 {
		return
	}
	t, err := g.tariffFor(ctx, r, metering.Heating)
	if err != nil {
		fail("tariff", err)
		return
	}
	cost, err := g.tariffs.CalculateCost(t, energy, r.periodEnd)
	if err != nil {
		fail("cost", err)
		return
	}
	method := g.cfg.DistributionMethod
	shares, err := g.circulation.Distribute(ctx, building, cost, method)
	if err != nil {
		fail("distribute", err)
		return
	}
	share := money.Round2(shares[r.property.ID])
	if share <= 0 {
		return
	}

	cfg := t.Configuration.Clone()
	r.items = append(r.items, invoicing.InvoiceItem{
		Description: circulationDescription,
		Quantity:    1,
		Unit:        monthUnit,
		UnitPrice:   share,
		Total:       share,
		MeterReadingSnapshot: invoicing.MeterReadingSnapshot{
			TariffID:           t.ID,
			TariffName:         t.Name,
			TariffConfig:       &cfg,
			BuildingID:         buildingID,
			CalculationType:    invoicing.CalculationTypeCirculation,
			CalculationDate:    r.periodEnd.Format(time.DateOnly),
			CirculationEnergy:  energy,
			BuildingCost:       money.Round2(cost),
			DistributionMethod: string(method),
			Share:              share,
		},
	})
}

func (g *Generator) recordAudit(ctx context.Context, inv *invoicing.Invoice) {
	if g.audit == nil {
		return
	}
	entry, err := audit.NewEntry(g.actor, audit.ActionInvoiceGenerated, audit.ResourceInvoice, inv.ID, map[string]any{
		"renter_id":    inv.TenantRenterID,
		"property_id":  inv.PropertyID,
		"total_amount": inv.TotalAmount,
		"item_count":   len(inv.Items),
	})
	if err == nil {
		err = g.audit.Log(ctx, entry)
	}
	if err != nil {
		g.logger.Error("audit log failed", zap.String("invoice_id", inv.ID), zap.Error(err))
	}
}
