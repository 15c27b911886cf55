package scenario

import "github.com/Simplici0/ringvirkning/internal/ripple"

// Comparison is a baseline calculation next to the calculation of a scenario.
type Comparison struct {
	ScenarioID    string                   `json:"scenarioId"`
	ScenarioInput ripple.OrganizationInput `json:"scenarioInput"`
	Baseline      ripple.Calculation       `json:"baseline"`
	Scenario      ripple.Calculation       `json:"scenario"`
	Difference    ripple.Difference        `json:"difference"`
}

// CompareScenarios applies s to a copy of base and compares both calculations. Both
// sides are normalized first.
func CompareScenarios(base ripple.OrganizationInput, s Scenario, cfg ripple.Config) Comparison {
	base = base.Normalize()
	scenarioInput := s.Apply(base)
	baseline := ripple.CalculateTotalRipple(base, cfg)
	projected := ripple.CalculateTotalRipple(scenarioInput, cfg)

	return Comparison{
		ScenarioID:    s.ID,
		ScenarioInput: scenarioInput,
		Baseline:      baseline,
		Scenario:      projected,
		Difference:    ripple.Diff(baseline, projected),
	}
}

// Sweep compares base against one single-delta scenario per value, in order.
func Sweep(base ripple.OrganizationInput, field Field, op Op, values []float64, cfg ripple.Config) ([]Comparison, error) {
	results := make([]Comparison, 0, len(values))
	for _, v := range values {
		s, err := New("sweep", string(field), Delta{Field: field, Op: op, Value: v})
		if err != nil {
			return nil, err
		}
		results = append(results, CompareScenarios(base, s, cfg))
	}
	return results, nil
}
