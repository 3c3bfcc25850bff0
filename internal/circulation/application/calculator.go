package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	circulation "utility-billing/internal/circulation/domain"
	metering "utility-billing/internal/metering/domain"
	"utility-billing/internal/money"
	"utility-billing/internal/observability/metrics"
	property "utility-billing/internal/property/domain"
)

// ConsumptionReader sums meter consumption of one type across properties.
type ConsumptionReader interface {
	Consumption(ctx context.Context, propertyIDs []string, meterType metering.MeterType, from, to time.Time) (float64, error)
}

// CirculationCalculator is the contract shared by Calculator and CachedCalculator.
type CirculationCalculator interface {
	CalculateSummer(ctx context.Context, building property.Building, month time.Time) (float64, error)
	CalculateWinter(ctx context.Context, building property.Building, month time.Time) (float64, error)
	Calculate(ctx context.Context, building property.Building, month time.Time) (float64, error)
	Distribute(ctx context.Context, building property.Building, totalCost float64, method circulation.DistributionMethod) (map[string]float64, error)
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Calculator computes circulation energy for a building.
type Calculator struct {
	properties  property.Reader
	consumption ConsumptionReader
	cfg         Config
	logger      *zap.Logger
}

// NewCalculator constructs a calculator.
func NewCalculator(properties property.Reader, consumption ConsumptionReader, cfg Config, opts ...Option) (*Calculator, error) {
	if properties == nil {
		return nil, errors.New("circulation calculator: nil property reader")
	}
	if consumption == nil {
		return nil, errors.New("circulation calculator: nil consumption reader")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Calculator{
		properties:  properties,
		consumption: consumption,
		cfg:         cfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Config returns the calculator settings.
func (c *Calculator) Config() Config {
	return c.cfg
}

// IsHeatingSeason reports whether date falls inside the heating season.
func (c *Calculator) IsHeatingSeason(date time.Time) bool {
	m := int(date.Month())
	start, end := c.cfg.HeatingSeasonStartMonth, c.cfg.HeatingSeasonEndMonth
	if start <= end {
		return m >= start && m <= end
	}
	return m >= start || m <= end
}

// IsSummerPeriod is the complement of IsHeatingSeason.
func (c *Calculator) IsSummerPeriod(date time.Time) bool {
	return !c.IsHeatingSeason(date)
}

// ValidateBuilding checks the apartment count.
func (c *Calculator) ValidateBuilding(building property.Building) error {
	if building.TotalApartments <= 0 {
		return &circulation.ValidationError{BuildingID: building.ID, Field: "total_apartments", Reason: "must be positive"}
	}
	if building.TotalApartments > c.cfg.MaxApartments {
		return &circulation.ValidationError{
			BuildingID: building.ID,
			Field:      "total_apartments",
			Reason:     fmt.Sprintf("exceeds maximum of %d", c.cfg.MaxApartments),
		}
	}
	return nil
}

// CalculateSummer returns heating energy not attributable to hot water heating.
func (c *Calculator) CalculateSummer(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	if err := c.ValidateBuilding(building); err != nil {
		return 0, err
	}
	if c.IsHeatingSeason(month) {
		c.logger.Warn("summer calculation requested for heating season month",
			zap.String("building_id", building.ID),
			zap.String("month", month.Format("2006-01")))
		return 0, nil
	}

	props, err := c.properties.ListPropertiesOfBuilding(ctx, building.ID)
	if err != nil {
		metrics.IncGyvatukasCalculation(string(circulation.Summer), metrics.ResultError)
		return 0, fmt.Errorf("circulation: list properties of %s: %w", building.ID, err)
	}
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}

	from := monthStart(month)
	to := from.AddDate(0, 1, 0)
	heating, err := c.consumption.Consumption(ctx, ids, metering.Heating, from, to)
	if err != nil {
		metrics.IncGyvatukasCalculation(string(circulation.Summer), metrics.ResultError)
		return 0, fmt.Errorf("circulation: heating consumption of %s: %w", building.ID, err)
	}
	hotWater, err := c.consumption.Consumption(ctx, ids, metering.WaterHot, from, to)
	if err != nil {
		metrics.IncGyvatukasCalculation(string(circulation.Summer), metrics.ResultError)
		return 0, fmt.Errorf("circulation: hot water consumption of %s: %w", building.ID, err)
	}

	waterHeating := decimal.NewFromFloat(hotWater).
		Mul(decimal.NewFromFloat(c.cfg.WaterSpecificHeat)).
		Mul(decimal.NewFromFloat(c.cfg.TemperatureDelta))
	energy, _ := decimal.NewFromFloat(heating).Sub(waterHeating).Float64()
	if energy < 0 {
		c.logger.Warn("negative circulation energy clamped to zero",
			zap.String("building_id", building.ID),
			zap.String("month", month.Format("2006-01")),
			zap.Float64("value", energy),
			zap.Float64("heating_kwh", heating),
			zap.Float64("hot_water_m3", hotWater))
		energy = 0
	}
	metrics.IncGyvatukasCalculation(string(circulation.Summer), metrics.ResultSuccess)
	return money.Round2(energy), nil
}

// CalculateWinter returns the stored summer average, adjusted for peak months.
func (c *Calculator) CalculateWinter(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	_ = ctx
	if err := c.ValidateBuilding(building); err != nil {
		return 0, err
	}
	if c.IsSummerPeriod(month) {
		c.logger.Warn("winter calculation requested for summer month",
			zap.String("building_id", building.ID),
			zap.String("month", month.Format("2006-01")))
		return 0, nil
	}
	if building.GyvatukasSummerAverage == nil || *building.GyvatukasSummerAverage <= 0 {
		c.logger.Warn("building has no summer average",
			zap.String("building_id", building.ID),
			zap.String("month", month.Format("2006-01")))
		metrics.IncGyvatukasCalculation(string(circulation.Winter), metrics.ResultError)
		return 0, nil
	}

	energy := *building.GyvatukasSummerAverage
	if c.cfg.isPeakMonth(month.Month()) {
		energy = decimal.NewFromFloat(energy).Mul(decimal.NewFromFloat(c.cfg.PeakWinterAdjustment)).InexactFloat64()
	}
	metrics.IncGyvatukasCalculation(string(circulation.Winter), metrics.ResultSuccess)
	return money.Round2(energy), nil
}

// Calculate dispatches on the season of month.
func (c *Calculator) Calculate(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	if c.IsHeatingSeason(month) {
		return c.CalculateWinter(ctx, building, month)
	}
	return c.CalculateSummer(ctx, building, month)
}

// Distribute splits totalCost between the properties of building.
func (c *Calculator) Distribute(ctx context.Context, building property.Building, totalCost float64, method circulation.DistributionMethod) (map[string]float64, error) {
	props, err := c.properties.ListPropertiesOfBuilding(ctx, building.ID)
	if err != nil {
		return nil, fmt.Errorf("circulation: list properties of %s: %w", building.ID, err)
	}
	shares := make(map[string]float64, len(props))
	if len(props) == 0 {
		c.logger.Warn("building has no properties to distribute to", zap.String("building_id", building.ID))
		return shares, nil
	}

	switch method {
	case circulation.DistributeEqual:
	case circulation.DistributeArea:
		total := decimal.Zero
		for _, p := range props {
			total = total.Add(decimal.NewFromFloat(p.AreaSqm))
		}
		if total.Sign() > 0 {
			cost := decimal.NewFromFloat(totalCost)
			for _, p := range props {
				share := cost.Mul(decimal.NewFromFloat(p.AreaSqm)).Div(total)
				shares[p.ID] = share.Round(2).InexactFloat64()
			}
			return shares, nil
		}
		c.logger.Warn("building has no total area, distributing equally", zap.String("building_id", building.ID))
	default:
		c.logger.Error("unknown distribution method, distributing equally",
			zap.String("building_id", building.ID),
			zap.String("method", string(method)))
	}

	share := money.Round2(totalCost / float64(len(props)))
	for _, p := range props {
		shares[p.ID] = share
	}
	return shares, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
