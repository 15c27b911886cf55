package ripple

import (
	"errors"
	"fmt"
	"math"
)

// Config holds the multipliers and rates that control how organization facts flow
// into direct, indirect and induced effects. Rates are fractions in [0,1];
// InducedMultiplier is a non-negative ratio.
type Config struct {
	EmployerTaxRate       float64 `json:"employerTaxRate" yaml:"employer_tax_rate"`
	CorporateTaxRate      float64 `json:"corporateTaxRate" yaml:"corporate_tax_rate"`
	IncomeTaxRate         float64 `json:"incomeTaxRate" yaml:"income_tax_rate"`
	InvestmentRatio       float64 `json:"investmentRatio" yaml:"investment_ratio"`
	SupplierSpendRatio    float64 `json:"supplierSpendRatio" yaml:"supplier_spend_ratio"`
	ConsumptionPropensity float64 `json:"consumptionPropensity" yaml:"consumption_propensity"`
	InducedMultiplier     float64 `json:"inducedMultiplier" yaml:"induced_multiplier"`
	HealthCareShare       float64 `json:"healthCareShare" yaml:"health_care_share"`
}

// Default rates, NOK-denominated Norwegian context.
const (
	DefaultEmployerTaxRate       = 0.141
	DefaultCorporateTaxRate      = 0.22
	DefaultIncomeTaxRate         = 0.30
	DefaultInvestmentRatio       = 0.40
	DefaultSupplierSpendRatio    = 0.35
	DefaultConsumptionPropensity = 0.70
	DefaultInducedMultiplier     = 0.50
	DefaultHealthCareShare       = 0.30

	// MaxInducedMultiplier bounds the re-spending ratio; anything above it is a typo.
	MaxInducedMultiplier = 5.0
)

// DefaultConfig returns the canonical default configuration.
func DefaultConfig() Config {
	return Config{
		EmployerTaxRate:       DefaultEmployerTaxRate,
		CorporateTaxRate:      DefaultCorporateTaxRate,
		IncomeTaxRate:         DefaultIncomeTaxRate,
		InvestmentRatio:       DefaultInvestmentRatio,
		SupplierSpendRatio:    DefaultSupplierSpendRatio,
		ConsumptionPropensity: DefaultConsumptionPropensity,
		InducedMultiplier:     DefaultInducedMultiplier,
		HealthCareShare:       DefaultHealthCareShare,
	}
}

// Validate reports every field that is out of range.
func (c Config) Validate() error {
	var errs []error

	fractions := []struct {
		name  string
		value float64
	}{
		{"employer_tax_rate", c.EmployerTaxRate},
		{"corporate_tax_rate", c.CorporateTaxRate},
		{"income_tax_rate", c.IncomeTaxRate},
		{"investment_ratio", c.InvestmentRatio},
		{"supplier_spend_ratio", c.SupplierSpendRatio},
		{"consumption_propensity", c.ConsumptionPropensity},
		{"health_care_share", c.HealthCareShare},
	}
	for _, f := range fractions {
		if !isFinite(f.value) || f.value < 0 || f.value > 1 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %v", f.name, f.value))
		}
	}

	if !isFinite(c.InducedMultiplier) || c.InducedMultiplier < 0 || c.InducedMultiplier > MaxInducedMultiplier {
		errs = append(errs, fmt.Errorf("induced_multiplier must be between 0 and %v, got %v", MaxInducedMultiplier, c.InducedMultiplier))
	}

	return errors.Join(errs...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
