// Package scenario applies hypothetical parameter changes to a baseline organization
// and compares the resulting ripple effect against the baseline.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/ringvirkning/internal/ripple"
)

// Field names an OrganizationInput field a delta can change.
type Field string

const (
	FieldEmployees          Field = "employees"
	FieldAverageSalary      Field = "averageSalary"
	FieldOperatingResult    Field = "operatingResult"
	FieldLocalShare         Field = "localShare"
	FieldAgencyShare        Field = "agencyShare"
	FieldFullTimeEquivalent Field = "fullTimeEquivalent"
	FieldTurnoverRate       Field = "turnoverRate"
)

// Op is how a delta's value is combined with the current field value.
type Op string

const (
	// OpPercent scales the field by (1 + value/100).
	OpPercent Op = "percent"
	// OpAdd adds value to the field.
	OpAdd Op = "add"
	// OpSet replaces the field with value.
	OpSet Op = "set"
)

var (
	ErrUnknownField = errors.New("unknown scenario field")
	ErrUnknownOp    = errors.New("unknown scenario op")
	ErrNotFound     = errors.New("scenario not found")
)

// MaxEmployees bounds the employee count a scenario can produce.
const MaxEmployees = math.MaxInt32

// Delta is a single declared change to one input field.
type Delta struct {
	Field Field   `json:"field" yaml:"field"`
	Op    Op      `json:"op" yaml:"op"`
	Value float64 `json:"value" yaml:"value"`
}

// Scenario is a named, serializable transformation of a baseline input.
type Scenario struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Deltas      []Delta `json:"deltas" yaml:"deltas"`
}

// New builds and validates a scenario.
func New(id, name string, deltas ...Delta) (Scenario, error) {
	s := Scenario{ID: id, Name: name, Deltas: deltas}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate checks that the scenario is well formed. Malformed deltas are rejected here
// so that Apply never has to.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("scenario id must not be blank")
	}
	for i, d := range s.Deltas {
		if !knownField(d.Field) {
			return fmt.Errorf("delta %d: %w: %q", i, ErrUnknownField, d.Field)
		}
		switch d.Op {
		case OpPercent, OpAdd, OpSet:
		default:
			return fmt.Errorf("delta %d: %w: %q", i, ErrUnknownOp, d.Op)
		}
		if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
			return fmt.Errorf("delta %d: value must be finite", i)
		}
	}
	return nil
}

// Apply returns a normalized copy of base with every delta applied in order.
func (s Scenario) Apply(base ripple.OrganizationInput) ripple.OrganizationInput {
	out := base
	for _, d := range s.Deltas {
		switch d.Field {
		case FieldEmployees:
			out.Employees = roundEmployees(d.apply(float64(out.Employees)))
		case FieldAverageSalary:
			out.AverageSalary = d.apply(out.AverageSalary)
		case FieldOperatingResult:
			out.OperatingResult = d.apply(out.OperatingResult)
		case FieldLocalShare:
			out.LocalShare = d.apply(out.LocalShare)
		case FieldAgencyShare:
			out.AgencyShare = d.apply(out.AgencyShare)
		case FieldFullTimeEquivalent:
			out.FullTimeEquivalent = d.apply(out.FullTimeEquivalent)
		case FieldTurnoverRate:
			out.TurnoverRate = d.apply(out.TurnoverRate)
		}
	}
	return out.Normalize()
}

func (d Delta) apply(current float64) float64 {
	switch d.Op {
	case OpPercent:
		return current * (1 + d.Value/100)
	case OpAdd:
		return current + d.Value
	case OpSet:
		return d.Value
	}
	return current
}

func roundEmployees(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= MaxEmployees:
		return MaxEmployees
	}
	return int(math.Round(v))
}

func knownField(f Field) bool {
	switch f {
	case FieldEmployees, FieldAverageSalary, FieldOperatingResult, FieldLocalShare,
		FieldAgencyShare, FieldFullTimeEquivalent, FieldTurnoverRate:
		return true
	}
	return false
}
