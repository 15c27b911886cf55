package ripple

import (
	"errors"
	"math"
	"strings"
)

// OrganizationInput holds the user-editable facts about one organization.
type OrganizationInput struct {
	Name               string  `json:"name" yaml:"name"`
	Employees          int     `json:"employees" yaml:"employees"`
	AverageSalary      float64 `json:"averageSalary" yaml:"average_salary"`
	OperatingResult    float64 `json:"operatingResult" yaml:"operating_result"`
	LocalShare         float64 `json:"localShare" yaml:"local_share"`
	AgencyShare        float64 `json:"agencyShare" yaml:"agency_share"`
	FullTimeEquivalent float64 `json:"fullTimeEquivalent" yaml:"full_time_equivalent"`
	TurnoverRate       float64 `json:"turnoverRate" yaml:"turnover_rate"`
}

var errBlankName = errors.New("name must not be blank")

// Normalize returns a copy with fractions clamped to [0,1], counts and salary floored
// at zero and non-finite values replaced by zero. Sliders may send out-of-range values
// mid-drag, so every boundary runs input through here before calculating.
func (in OrganizationInput) Normalize() OrganizationInput {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	if out.Employees < 0 {
		out.Employees = 0
	}
	out.AverageSalary = nonNegative(in.AverageSalary)
	out.OperatingResult = finite(in.OperatingResult)
	out.LocalShare = clampFraction(in.LocalShare)
	out.AgencyShare = clampFraction(in.AgencyShare)
	out.FullTimeEquivalent = clampFraction(in.FullTimeEquivalent)
	out.TurnoverRate = clampFraction(in.TurnoverRate)
	return out
}

// Validate rejects inputs that cannot be corrected by clamping.
func (in OrganizationInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errBlankName
	}
	return nil
}

func clampFraction(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
