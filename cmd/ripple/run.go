package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/Simplici0/ringvirkning/internal/report"
	"github.com/Simplici0/ringvirkning/internal/ripple"
	"github.com/Simplici0/ringvirkning/internal/scenario"
	"github.com/Simplici0/ringvirkning/internal/tenant"
)

func loadCatalog(path string) ([]tenant.Tenant, error) {
	if path == "" {
		return tenant.Builtin(), nil
	}
	return tenant.LoadFile(path)
}

// resolve returns the organization and config selected by the flags. An input file
// wins over the tenant's facts; a config file wins over the tenant's config.
func resolve(src sourceFlags) (ripple.OrganizationInput, ripple.Config, error) {
	catalog, err := loadCatalog(src.tenantsFile)
	if err != nil {
		return ripple.OrganizationInput{}, ripple.Config{}, err
	}

	t := catalog[0]
	if src.tenant != "" {
		if t, err = tenant.Find(catalog, src.tenant); err != nil {
			return ripple.OrganizationInput{}, ripple.Config{}, err
		}
	}

	input, cfg := t.Input, t.Config
	if src.inputFile != "" {
		if input, err = ripple.LoadInput(src.inputFile); err != nil {
			return input, cfg, err
		}
	}
	if src.configFile != "" {
		if cfg, err = ripple.LoadConfig(src.configFile); err != nil {
			return input, cfg, err
		}
	}
	return input, cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCalc(w io.Writer, src sourceFlags) error {
	input, cfg, err := resolve(src)
	if err != nil {
		return err
	}

	calc := ripple.CalculateTotalRipple(input, cfg)
	if src.jsonOut {
		return writeJSON(w, calc)
	}
	return report.WriteCalculation(w, input.Name, calc, report.Options{Detailed: src.detailed})
}

func runCompare(w io.Writer, src sourceFlags, scenarioID, scenarioFile string) error {
	input, cfg, err := resolve(src)
	if err != nil {
		return err
	}

	var candidates []scenario.Scenario
	if scenarioFile != "" {
		if candidates, err = scenario.LoadFile(scenarioFile); err != nil {
			return err
		}
	}

	var selected []scenario.Scenario
	switch {
	case scenarioID != "" && scenarioFile != "":
		for _, s := range candidates {
			if s.ID == scenarioID {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			return fmt.Errorf("%w: %q in %s", scenario.ErrNotFound, scenarioID, scenarioFile)
		}
	case scenarioID != "":
		s, err := scenario.Preset(scenarioID)
		if err != nil {
			return err
		}
		selected = append(selected, s)
	case scenarioFile != "":
		selected = candidates
	default:
		return fmt.Errorf("either --scenario or --scenario-file is required")
	}

	results := make([]scenario.Comparison, 0, len(selected))
	for _, s := range selected {
		results = append(results, scenario.CompareScenarios(input, s, cfg))
	}
	if src.jsonOut {
		return writeJSON(w, results)
	}

	for i, c := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := report.WriteComparison(w, c); err != nil {
			return err
		}
	}
	return nil
}

func runSweep(w io.Writer, src sourceFlags, field, op string, values []float64) error {
	input, cfg, err := resolve(src)
	if err != nil {
		return err
	}

	results, err := scenario.Sweep(input, scenario.Field(field), scenario.Op(op), values, cfg)
	if err != nil {
		return err
	}
	if src.jsonOut {
		return writeJSON(w, results)
	}
	return report.WriteSweep(w, scenario.Field(field), scenario.Op(op), values, results)
}

func runScenarios(w io.Writer, scenarioFile string, jsonOut bool) error {
	list := scenario.Presets()
	if scenarioFile != "" {
		var err error
		if list, err = scenario.LoadFile(scenarioFile); err != nil {
			return err
		}
	}
	if jsonOut {
		return writeJSON(w, list)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
	}
	return tw.Flush()
}

func runTenants(w io.Writer, tenantsFile string, jsonOut bool) error {
	catalog, err := loadCatalog(tenantsFile)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(w, catalog)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tEMPLOYEES\tVALUE CREATION")
	for _, t := range catalog {
		calc := ripple.CalculateTotalRipple(t.Input, t.Config)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Name, t.Kind, t.Input.Employees, report.FormatNOK(calc.Totals.ValueCreation))
	}
	return tw.Flush()
}
