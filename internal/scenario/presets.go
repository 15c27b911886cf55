package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var presets = []Scenario{
	{
		ID:          "staff-plus-10",
		Name:        "+10% staff",
		Description: "Hire ten percent more employees at the current average salary",
		Deltas:      []Delta{{Field: FieldEmployees, Op: OpPercent, Value: 10}},
	},
	{
		ID:          "salary-plus-5",
		Name:        "+5% salary",
		Description: "Raise the average salary by five percent",
		Deltas:      []Delta{{Field: FieldAverageSalary, Op: OpPercent, Value: 5}},
	},
	{
		ID:          "halve-agency",
		Name:        "Halve agency use",
		Description: "Move half of the agency-staffed work to permanent employees",
		Deltas:      []Delta{{Field: FieldAgencyShare, Op: OpPercent, Value: -50}},
	},
	{
		ID:          "full-time",
		Name:        "Full-time culture",
		Description: "Every position is a full-time position",
		Deltas:      []Delta{{Field: FieldFullTimeEquivalent, Op: OpSet, Value: 1}},
	},
	{
		ID:          "deficit-year",
		Name:        "Deficit year",
		Description: "Operating result turns into a loss of ten million",
		Deltas:      []Delta{{Field: FieldOperatingResult, Op: OpSet, Value: -10_000_000}},
	},
}

// Presets returns a copy of the built-in scenarios.
func Presets() []Scenario {
	out := make([]Scenario, len(presets))
	for i, p := range presets {
		out[i] = p.clone()
	}
	return out
}

// Preset looks up a built-in scenario by id.
func Preset(id string) (Scenario, error) {
	for _, p := range presets {
		if p.ID == id {
			return p.clone(), nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadFile reads scenario definitions from a YAML file and validates each one.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	for _, s := range f.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.ID, err)
		}
	}
	return f.Scenarios, nil
}

func (s Scenario) clone() Scenario {
	s.Deltas = append([]Delta(nil), s.Deltas...)
	return s
}
