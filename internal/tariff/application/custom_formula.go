package application

import (
	"fmt"
	"time"

	"utility-billing/internal/formula"
	tariff "utility-billing/internal/tariff/domain"
)

// ConsumptionVariable is the name consumption is bound to in formulas.
const ConsumptionVariable = tariff.ConsumptionVariable

// CustomFormula evaluates the tariff expression with its variables and the
// consumption bound.
type CustomFormula struct {
	evaluator *formula.Evaluator
}

// NewCustomFormula constructs the strategy. A nil evaluator uses the default.
func NewCustomFormula(evaluator *formula.Evaluator) CustomFormula {
	if evaluator == nil {
		evaluator = formula.New()
	}
	return CustomFormula{evaluator: evaluator}
}

// Type implements Strategy.
func (CustomFormula) Type() tariff.ConfigurationType { return tariff.TypeCustomFormula }

// Calculate implements Strategy.
func (s CustomFormula) Calculate(cfg tariff.Configuration, consumption float64, _ time.Time) (float64, error) {
	evaluator := s.evaluator
	if evaluator == nil {
		evaluator = formula.New()
	}
	if cfg.Expression == "" {
		return 0, fmt.Errorf("%w: custom_formula tariff has no expression", tariff.ErrInvalidConfiguration)
	}
	vars := make(formula.Variables, len(cfg.Variables)+1)
	for name, value := range cfg.Variables {
		vars[name] = value
	}
	vars[ConsumptionVariable] = consumption
	return evaluator.Evaluate(cfg.Expression, vars)
}
