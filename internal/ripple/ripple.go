// Package ripple computes the socioeconomic ripple effect of an organization: the
// direct, indirect and induced value its operations create in the local economy.
package ripple

import "math"

// DirectEffect is the value created by the organization's own spending.
type DirectEffect struct {
	Wages float64 `json:"wages"`
	// IncomeTax is the part of Wages withheld as income tax; it is not added to Total.
	IncomeTax  float64 `json:"incomeTax"`
	Taxes      float64 `json:"taxes"`
	Investment float64 `json:"investment"`
	Total      float64 `json:"total"`
}

// IndirectEffect is the value created by the organization's suppliers.
type IndirectEffect struct {
	AgencySpend        float64 `json:"agencySpend"`
	SupplierSpend      float64 `json:"supplierSpend"`
	LocalEconomyEffect float64 `json:"localEconomyEffect"`
	ExternalLeakage    float64 `json:"externalLeakage"`
	Total              float64 `json:"total"`
}

// InducedEffect is the value created when wages and supplier income are re-spent locally.
type InducedEffect struct {
	HouseholdSpend     float64 `json:"householdSpend"`
	LocalEconomyEffect float64 `json:"localEconomyEffect"`
	HealthAndCare      float64 `json:"healthAndCare"`
	Total              float64 `json:"total"`
}

// Totals contains the roll-up values across all effect layers.
type Totals struct {
	ValueCreation    float64 `json:"valueCreation"`
	Employment       float64 `json:"employment"`
	TaxContribution  float64 `json:"taxContribution"`
	MultiplierEffect float64 `json:"multiplierEffect"`
}

// Calculation is the full result of one ripple calculation. It is never mutated after
// construction; a changed input produces a new Calculation.
type Calculation struct {
	Direct   DirectEffect   `json:"directEffect"`
	Indirect IndirectEffect `json:"indirectEffect"`
	Induced  InducedEffect  `json:"inducedEffect"`
	Totals   Totals         `json:"totals"`
}

// CalculateTotalRipple derives the ripple effect of input under cfg. An organization
// without employees or salary has no ripple effect and yields the zero Calculation.
// Values are returned at full precision.
func CalculateTotalRipple(input OrganizationInput, cfg Config) Calculation {
	if input.Employees <= 0 || input.AverageSalary <= 0 {
		return Calculation{}
	}

	workforceCost := float64(input.Employees) * input.AverageSalary
	positiveResult := floor(input.OperatingResult)

	direct := calculateDirect(input, cfg, workforceCost, positiveResult)
	indirect := calculateIndirect(input, cfg, direct, workforceCost)
	induced := calculateInduced(input, cfg, direct, indirect)

	valueCreation := direct.Total + indirect.Total + induced.Total
	// The base value counts agency-staffed work the organization pays for outside wages.
	baseValue := direct.Total + indirect.AgencySpend

	return Calculation{
		Direct:   direct,
		Indirect: indirect,
		Induced:  induced,
		Totals: Totals{
			ValueCreation:    valueCreation,
			Employment:       ratio(valueCreation, input.AverageSalary) * input.FullTimeEquivalent,
			TaxContribution:  direct.Taxes + direct.IncomeTax,
			MultiplierEffect: ratio(valueCreation, baseValue),
		},
	}
}

func calculateDirect(input OrganizationInput, cfg Config, workforceCost, positiveResult float64) DirectEffect {
	wages := floor(workforceCost * (1 - input.AgencyShare))
	taxes := floor(wages*cfg.EmployerTaxRate + positiveResult*cfg.CorporateTaxRate)
	investment := floor(positiveResult * cfg.InvestmentRatio)

	return DirectEffect{
		Wages:      wages,
		IncomeTax:  floor(wages * cfg.IncomeTaxRate),
		Taxes:      taxes,
		Investment: investment,
		Total:      wages + taxes + investment,
	}
}

func calculateIndirect(input OrganizationInput, cfg Config, direct DirectEffect, workforceCost float64) IndirectEffect {
	agencySpend := floor(workforceCost * input.AgencyShare)
	supplierSpend := floor(direct.Total*cfg.SupplierSpendRatio + agencySpend)
	local := floor(supplierSpend * input.LocalShare)
	leakage := floor(supplierSpend - local)

	return IndirectEffect{
		AgencySpend:        agencySpend,
		SupplierSpend:      supplierSpend,
		LocalEconomyEffect: local,
		ExternalLeakage:    leakage,
		Total:              local,
	}
}

func calculateInduced(input OrganizationInput, cfg Config, direct DirectEffect, indirect IndirectEffect) InducedEffect {
	netWages := floor(direct.Wages - direct.IncomeTax)
	householdSpend := floor(netWages * cfg.ConsumptionPropensity * input.LocalShare)
	local := floor((indirect.LocalEconomyEffect + householdSpend) * cfg.InducedMultiplier)
	healthAndCare := floor((direct.Taxes + direct.IncomeTax) * cfg.HealthCareShare)

	return InducedEffect{
		HouseholdSpend:     householdSpend,
		LocalEconomyEffect: local,
		HealthAndCare:      healthAndCare,
		Total:              local + healthAndCare,
	}
}

// IsFinite reports whether every field of the calculation is a finite number.
func (c Calculation) IsFinite() bool {
	for _, v := range c.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MonetaryFields returns every currency-denominated field keyed by a dotted path.
func (c Calculation) MonetaryFields() map[string]float64 {
	return map[string]float64{
		"direct.wages":             c.Direct.Wages,
		"direct.incomeTax":         c.Direct.IncomeTax,
		"direct.taxes":             c.Direct.Taxes,
		"direct.investment":        c.Direct.Investment,
		"direct.total":             c.Direct.Total,
		"indirect.agencySpend":     c.Indirect.AgencySpend,
		"indirect.supplierSpend":   c.Indirect.SupplierSpend,
		"indirect.localEconomy":    c.Indirect.LocalEconomyEffect,
		"indirect.externalLeakage": c.Indirect.ExternalLeakage,
		"indirect.total":           c.Indirect.Total,
		"induced.householdSpend":   c.Induced.HouseholdSpend,
		"induced.localEconomy":     c.Induced.LocalEconomyEffect,
		"induced.healthAndCare":    c.Induced.HealthAndCare,
		"induced.total":            c.Induced.Total,
		"totals.valueCreation":     c.Totals.ValueCreation,
		"totals.taxContribution":   c.Totals.TaxContribution,
	}
}

func (c Calculation) values() []float64 {
	vals := make([]float64, 0, 18)
	for _, v := range c.MonetaryFields() {
		vals = append(vals, v)
	}
	return append(vals, c.Totals.Employment, c.Totals.MultiplierEffect)
}

// floor clamps a monetary value at zero and maps non-finite values to zero.
func floor(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ratio divides a by b, defining division by zero as 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
