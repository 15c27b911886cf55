package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Simplici0/ringvirkning/internal/history"
	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
)

// Options control how much of a calculation is printed.
type Options struct {
	Detailed bool
}

// WriteCalculation prints the totals of calc and, in detailed mode, every effect line.
func WriteCalculation(w io.Writer, title string, calc ripple.Calculation, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\n", title)
	fmt.Fprintf(tw, "%s\n", underline(title))

	if opts.Detailed {
		fmt.Fprintln(tw, "Direct effect\t\t")
		row(tw, "Wages", calc.Direct.Wages)
		row(tw, "Income tax", calc.Direct.IncomeTax)
		row(tw, "Employer and corporate tax", calc.Direct.Taxes)
		row(tw, "Investment", calc.Direct.Investment)
		row(tw, "Total", calc.Direct.Total)
		fmt.Fprintln(tw, "Indirect effect\t\t")
		row(tw, "Agency spend", calc.Indirect.AgencySpend)
		row(tw, "Supplier spend", calc.Indirect.SupplierSpend)
		row(tw, "Local economy", calc.Indirect.LocalEconomyEffect)
		row(tw, "External leakage", calc.Indirect.ExternalLeakage)
		row(tw, "Total", calc.Indirect.Total)
		fmt.Fprintln(tw, "Induced effect\t\t")
		row(tw, "Household spend", calc.Induced.HouseholdSpend)
		row(tw, "Local economy", calc.Induced.LocalEconomyEffect)
		row(tw, "Health and care", calc.Induced.HealthAndCare)
		row(tw, "Total", calc.Induced.Total)
		fmt.Fprintln(tw, "\t\t")
	}

	fmt.Fprintf(tw, "Value creation\t%s\t\n", FormatNOK(calc.Totals.ValueCreation))
	fmt.Fprintf(tw, "Tax contribution\t%s\t\n", FormatNOK(calc.Totals.TaxContribution))
	fmt.Fprintf(tw, "Employment (FTE)\t%s\t\n", FormatNumber(calc.Totals.Employment, 1))
	fmt.Fprintf(tw, "Multiplier\t%s\t\n", FormatNumber(calc.Totals.MultiplierEffect, 2))
	return tw.Flush()
}

// WriteDifference prints the change between a baseline and another calculation.
func WriteDifference(w io.Writer, d ripple.Difference) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Value creation\t%s\t\n", FormatSignedNOK(d.ValueCreation))
	fmt.Fprintf(tw, "Tax contribution\t%s\t\n", FormatSignedNOK(d.TaxContribution))
	fmt.Fprintf(tw, "Employment (FTE)\t%s\t\n", signed(FormatNumber(d.Employment, 1), d.Employment))
	fmt.Fprintf(tw, "Change\t%s\t\n", FormatPercent(d.PercentChange))
	return tw.Flush()
}

// WriteComparison prints baseline and scenario totals side by side.
func WriteComparison(w io.Writer, c scenario.Comparison) error {
	fmt.Fprintf(w, "Scenario %s\n\n", c.ScenarioID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tBaseline\tScenario\t")
	pair(tw, "Value creation", c.Baseline.Totals.ValueCreation, c.Scenario.Totals.ValueCreation)
	pair(tw, "Tax contribution", c.Baseline.Totals.TaxContribution, c.Scenario.Totals.TaxContribution)
	fmt.Fprintf(tw, "Employment (FTE)\t%s\t%s\t\n",
		FormatNumber(c.Baseline.Totals.Employment, 1), FormatNumber(c.Scenario.Totals.Employment, 1))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return WriteDifference(w, c.Difference)
}

// WriteSnapshotComparison prints the comparison of two saved snapshots.
func WriteSnapshotComparison(w io.Writer, c history.Comparison) error {
	fmt.Fprintf(w, "%s vs %s\n\n", c.Left.Name, c.Right.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t%s\t\n", c.Left.Name, c.Right.Name)
	pair(tw, "Value creation", c.Left.Calculation.Totals.ValueCreation, c.Right.Calculation.Totals.ValueCreation)
	pair(tw, "Tax contribution", c.Left.Calculation.Totals.TaxContribution, c.Right.Calculation.Totals.TaxContribution)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return WriteDifference(w, c.Difference)
}

// WriteSweep prints one line per sweep step.
func WriteSweep(w io.Writer, field scenario.Field, op scenario.Op, values []float64, results []scenario.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s (%s)\tValue creation\tChange\t\n", field, op)
	for i, c := range results {
		v := ""
		if i < len(values) {
			v = FormatNumber(values[i], 2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", v, FormatNOK(c.Scenario.Totals.ValueCreation), FormatPercent(c.Difference.PercentChange))
	}
	return tw.Flush()
}

func row(w io.Writer, label string, v float64) {
	fmt.Fprintf(w, "  %s\t%s\t\n", label, FormatNOK(v))
}

func pair(w io.Writer, label string, left, right float64) {
	fmt.Fprintf(w, "%s\t%s\t%s\t\n", label, FormatNOK(left), FormatNOK(right))
}

func signed(s string, v float64) string {
	if v > 0 && s != "0.0" {
		return "+" + s
	}
	return s
}

func underline(s string) string {
	b := make([]byte, len(s))
	for i := range b {
		b[i] = '='
	}
	return string(b)
}
