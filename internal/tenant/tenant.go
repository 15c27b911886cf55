// Package tenant holds the catalog of organizations the dashboard can present.
package tenant

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/ringvirkning/internal/ripple"
)

var ErrNotFound = errors.New("tenant not found")

// Tenant is one organization together with the economic assumptions used for it.
type Tenant struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Kind   string                   `json:"kind"`
	Input  ripple.OrganizationInput `json:"input"`
	Config ripple.Config            `json:"config"`
}

// Builtin returns the default catalog.
func Builtin() []Tenant {
	nursingCfg := ripple.DefaultConfig()
	nursingCfg.HealthCareShare = 0.35

	utilityCfg := ripple.DefaultConfig()
	utilityCfg.InvestmentRatio = 0.60
	utilityCfg.SupplierSpendRatio = 0.45
	utilityCfg.HealthCareShare = 0.20

	return []Tenant{
		{
			ID:   "nursing-union",
			Name: "Nursing union",
			Kind: "union",
			Input: ripple.OrganizationInput{
				Name:               "Nursing union",
				Employees:          1000,
				AverageSalary:      580000,
				OperatingResult:    50_000_000,
				LocalShare:         0.95,
				AgencyShare:        0.15,
				FullTimeEquivalent: 0.75,
				TurnoverRate:       0.12,
			},
			Config: nursingCfg,
		},
		{
			ID:   "energy-utility",
			Name: "Energy utility",
			Kind: "utility",
			Input: ripple.OrganizationInput{
				Name:               "Energy utility",
				Employees:          420,
				AverageSalary:      810000,
				OperatingResult:    900_000_000,
				LocalShare:         0.85,
				AgencyShare:        0.02,
				FullTimeEquivalent: 0.95,
				TurnoverRate:       0.04,
			},
			Config: utilityCfg,
		},
	}
}

type catalogFile struct {
	Tenants []catalogEntry `yaml:"tenants"`
}

type catalogEntry struct {
	ID     string                   `yaml:"id"`
	Name   string                   `yaml:"name"`
	Kind   string                   `yaml:"kind"`
	Input  ripple.OrganizationInput `yaml:"input"`
	Config yaml.Node                `yaml:"config"`
}

// LoadFile reads a tenant catalog from YAML. Config keys a tenant leaves out keep
// their default values.
func LoadFile(path string) ([]Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tenant file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tenant YAML: %w", err)
	}
	if len(f.Tenants) == 0 {
		return nil, fmt.Errorf("tenant file %s lists no tenants", path)
	}

	seen := make(map[string]bool, len(f.Tenants))
	out := make([]Tenant, 0, len(f.Tenants))
	for _, e := range f.Tenants {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("tenant without id in %s", path)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate tenant id %q", id)
		}
		seen[id] = true

		cfg := ripple.DefaultConfig()
		if !e.Config.IsZero() {
			if err := e.Config.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("tenant %q config: %w", id, err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("tenant %q config: %w", id, err)
		}

		input := e.Input.Normalize()
		if input.Name == "" {
			input.Name = e.Name
		}
		if err := input.Validate(); err != nil {
			return nil, fmt.Errorf("tenant %q input: %w", id, err)
		}

		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = input.Name
		}
		out = append(out, Tenant{ID: id, Name: name, Kind: e.Kind, Input: input, Config: cfg})
	}
	return out, nil
}

// Find looks up a tenant by id in an in-memory catalog.
func Find(tenants []Tenant, id string) (Tenant, error) {
	for _, t := range tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return Tenant{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}
