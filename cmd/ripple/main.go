package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ripple",
		Short:        "Calculate the socioeconomic ripple effect of an organization",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(scenariosCmd())
	rootCmd.AddCommand(tenantsCmd())
	return rootCmd
}

// sourceFlags select the organization and assumptions a command works on.
type sourceFlags struct {
	tenant      string
	tenantsFile string
	inputFile   string
	configFile  string
	jsonOut     bool
	detailed    bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tenant, "tenant", "t", "", "tenant id from the catalog (default: first tenant)")
	cmd.Flags().StringVar(&f.tenantsFile, "tenants", "", "YAML tenant catalog replacing the built-in one")
	cmd.Flags().StringVarP(&f.inputFile, "input", "i", "", "YAML file with organization facts")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "YAML file with multiplier overrides")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print raw JSON instead of a report")
	cmd.Flags().BoolVarP(&f.detailed, "detailed", "d", false, "include the full effect breakdown")
}

func calcCmd() *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate direct, indirect and induced effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalc(cmd.OutOrStdout(), src)
		},
	}
	src.register(cmd)
	return cmd
}

func compareCmd() *cobra.Command {
	var (
		src          sourceFlags
		scenarioID   string
		scenarioFile string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the baseline against one or more scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd.OutOrStdout(), src, scenarioID, scenarioFile)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&scenarioID, "scenario", "s", "", "scenario id (preset, or entry of --scenario-file)")
	cmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "YAML file with scenario definitions")
	return cmd
}

func sweepCmd() *cobra.Command {
	var (
		src    sourceFlags
		field  string
		op     string
		values []float64
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Vary one input field over a list of values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.OutOrStdout(), src, field, op, values)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&field, "field", "employees", "input field to vary")
	cmd.Flags().StringVar(&op, "op", "percent", "how values apply: percent, add or set")
	cmd.Flags().Float64SliceVar(&values, "values", []float64{-20, -10, 0, 10, 20}, "comma separated values")
	return cmd
}

func scenariosCmd() *cobra.Command {
	var (
		scenarioFile string
		jsonOut      bool
	)
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenarios(cmd.OutOrStdout(), scenarioFile, jsonOut)
		},
	}
	cmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "YAML file with scenario definitions")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print raw JSON")
	return cmd
}

func tenantsCmd() *cobra.Command {
	var (
		tenantsFile string
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List the tenant catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTenants(cmd.OutOrStdout(), tenantsFile, jsonOut)
		},
	}
	cmd.Flags().StringVar(&tenantsFile, "tenants", "", "YAML tenant catalog replacing the built-in one")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print raw JSON")
	return cmd
}
