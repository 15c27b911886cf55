package ripple

// Difference is the change from a baseline calculation to another calculation.
type Difference struct {
	ValueCreation   float64 `json:"valueCreation"`
	Employment      float64 `json:"employment"`
	TaxContribution float64 `json:"taxContribution"`
	// PercentChange is the relative change in value creation, in percent. It is 0 when
	// the baseline creates no value.
	PercentChange float64 `json:"percentChange"`
}

// Diff returns other minus baseline.
func Diff(baseline, other Calculation) Difference {
	delta := other.Totals.ValueCreation - baseline.Totals.ValueCreation
	return Difference{
		ValueCreation:   delta,
		Employment:      other.Totals.Employment - baseline.Totals.Employment,
		TaxContribution: other.Totals.TaxContribution - baseline.Totals.TaxContribution,
		PercentChange:   ratio(delta, baseline.Totals.ValueCreation) * 100,
	}
}
