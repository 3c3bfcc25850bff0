package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"utility-billing/internal/audit"
	"utility-billing/internal/logging"
	property "utility-billing/internal/property/domain"
)

// ErrNoCompleteSummer is returned when no finished summer precedes the reference date.
var ErrNoCompleteSummer = errors.New("circulation: no complete summer before reference date")

// CacheClearer drops cached results of a building.
type CacheClearer interface {
	ClearBuildingCache(ctx context.Context, buildingID string)
}

// SummerAverageService recomputes and stores the summer baseline of a building.
type SummerAverageService struct {
	calc    *Calculator
	writer  property.BuildingWriter
	clearer CacheClearer
	logger  *zap.Logger
	audit   audit.Logger
	actor   string
}

// SummerAverageOption configures a SummerAverageService.
type SummerAverageOption func(*SummerAverageService)

// WithSummerAverageAudit records every stored average as actor.
func WithSummerAverageAudit(logger audit.Logger, actor string) SummerAverageOption {
	return func(s *SummerAverageService) {
		s.audit = logger
		if actor != "" {
			s.actor = actor
		}
	}
}

// NewSummerAverageService constructs the service. clearer may be nil when no cache is used.
func NewSummerAverageService(calc *Calculator, writer property.BuildingWriter, clearer CacheClearer, logger *zap.Logger, opts ...SummerAverageOption) (*SummerAverageService, error) {
	if calc == nil {
		return nil, errors.New("summer average service: nil calculator")
	}
	if writer == nil {
		return nil, errors.New("summer average service: nil building writer")
	}
	s := &SummerAverageService{calc: calc, writer: writer, clearer: clearer, logger: logging.OrNop(logger), actor: "system"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// LastCompleteSummer returns the month starts of the last summer that ended before now.
func (s *SummerAverageService) LastCompleteSummer(now time.Time) ([]time.Time, error) {
	cursor := monthStart(now)
	// the summer containing now is still in progress
	for i := 0; i < 12 && s.calc.IsSummerPeriod(cursor); i++ {
		cursor = cursor.AddDate(0, -1, 0)
	}
	for i := 0; i < 12 && s.calc.IsHeatingSeason(cursor); i++ {
		cursor = cursor.AddDate(0, -1, 0)
	}

	var months []time.Time
	for i := 0; i < 12 && s.calc.IsSummerPeriod(cursor); i++ {
		months = append([]time.Time{cursor}, months...)
		cursor = cursor.AddDate(0, -1, 0)
	}
	if len(months) == 0 {
		return nil, ErrNoCompleteSummer
	}
	return months, nil
}

// Recalculate stores the average summer circulation energy of building.
func (s *SummerAverageService) Recalculate(ctx context.Context, building property.Building, now time.Time) (float64, error) {
	if err := s.calc.ValidateBuilding(building); err != nil {
		return 0, err
	}
	months, err := s.LastCompleteSummer(now)
	if err != nil {
		return 0, err
	}

	total := decimal.Zero
	for _, month := range months {
		energy, err := s.calc.CalculateSummer(ctx, building, month)
		if err != nil {
			return 0, fmt.Errorf("circulation: summer %s of %s: %w", month.Format("2006-01"), building.ID, err)
		}
		total = total.Add(decimal.NewFromFloat(energy))
	}
	average := total.Div(decimal.NewFromInt(int64(len(months)))).Round(2).InexactFloat64()

	if err := s.writer.UpdateSummerAverage(ctx, building.ID, average, now); err != nil {
		return 0, fmt.Errorf("circulation: store summer average of %s: %w", building.ID, err)
	}
	s.logger.Info("summer average recalculated",
		zap.String("building_id", building.ID),
		zap.Float64("summer_average", average),
		zap.Int("month_count", len(months)),
		zap.String("period", months[0].Format("2006-01")+".."+months[len(months)-1].Format("2006-01")))

	s.recordAudit(ctx, building.ID, average, months)

	if s.clearer != nil {
		s.clearer.ClearBuildingCache(ctx, building.ID)
	}
	return average, nil
}

func (s *SummerAverageService) recordAudit(ctx context.Context, buildingID string, average float64, months []time.Time) {
	if s.audit == nil {
		return
	}
	entry, err := audit.NewEntry(s.actor, audit.ActionSummerAverage, audit.ResourceBuilding, buildingID, map[string]any{
		"summer_average": average,
		"from":           months[0].Format("2006-01"),
		"to":             months[len(months)-1].Format("2006-01"),
	})
	if err == nil {
		err = s.audit.Log(ctx, entry)
	}
	if err != nil {
		s.logger.Error("audit log failed", zap.String("building_id", buildingID), zap.Error(err))
	}
}
