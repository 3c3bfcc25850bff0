package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationValidate(t *testing.T) {
	valid := []Configuration{
		{Type: TypeFlat, Rate: 0.15},
		{Type: TypeTimeOfUse, Zones: []Zone{{ID: "day", Start: "07:00", End: "23:00", Rate: 0.2}, {ID: "night", Start: "23:00", End: "07:00", Rate: 0.1}}},
		{Type: TypeTiered, Tiers: []Tier{{Limit: Limit(100), Rate: 0.1}, {Rate: 0.2}}},
		{Type: TypeCustomFormula, Expression: "consumption * rate", Variables: map[string]float64{"rate": 0.1}},
	}
	for _, cfg := range valid {
		assert.NoError(t, cfg.Validate(), cfg.Type)
	}

	invalid := map[string]Configuration{
		"negative flat":      {Type: TypeFlat, Rate: -1},
		"no zones":           {Type: TypeTimeOfUse},
		"bad clock":          {Type: TypeTimeOfUse, Zones: []Zone{{ID: "d", Start: "25:00", End: "07:00"}}},
		"duplicate zone":     {Type: TypeTimeOfUse, Zones: []Zone{{ID: "d", Start: "01:00", End: "02:00"}, {ID: "d", Start: "02:00", End: "03:00"}}},
		"unknown weekend":    {Type: TypeTimeOfUse, Zones: []Zone{{ID: "d", Start: "01:00", End: "02:00"}}, WeekendLogic: "skip"},
		"no tiers":           {Type: TypeTiered},
		"descending tiers":   {Type: TypeTiered, Tiers: []Tier{{Limit: Limit(200), Rate: 0.1}, {Limit: Limit(100), Rate: 0.2}}},
		"unbounded not last": {Type: TypeTiered, Tiers: []Tier{{Rate: 0.1}, {Limit: Limit(100), Rate: 0.2}}},
		"bad formula":        {Type: TypeCustomFormula, Expression: "consumption *"},
		"undeclared var":     {Type: TypeCustomFormula, Expression: "consumption * rate"},
		"missing type":       {},
	}
	for name, cfg := range invalid {
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration, name)
	}

	assert.ErrorIs(t, Configuration{Type: "seasonal"}.Validate(), ErrUnsupportedType)
}
