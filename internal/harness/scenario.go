package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qbridge-dev/qbridge/internal/exporter"
	"github.com/qbridge-dev/qbridge/internal/gates"
)

// Scenario defines one conformance scenario: an OpenQASM source, the export
// options to apply, and the expectations on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the OpenQASM 3 program to import.
	Source string `yaml:"source"`

	// Options overrides exporter defaults. Omitted fields keep the default.
	Options *OptionSpec `yaml:"options,omitempty"`

	// CustomGates are constructors supplied to the build, mirroring
	// caller-registered gates.
	CustomGates []GateSpec `yaml:"custom_gates,omitempty"`

	// Expect holds the outcome expectations.
	Expect ExpectClause `yaml:"expect"`
}

// OptionSpec is the YAML surface of exporter.Options.
type OptionSpec struct {
	Includes         []string `yaml:"includes,omitempty"`
	BasisGates       []string `yaml:"basis_gates,omitempty"`
	DisableConstants *bool    `yaml:"disable_constants,omitempty"`
	AllowAliasing    bool     `yaml:"allow_aliasing,omitempty"`
	Indent           string   `yaml:"indent,omitempty"`
}

// GateSpec declares one custom gate constructor.
type GateSpec struct {
	Name   string `yaml:"name"`
	Qubits int    `yaml:"qubits"`
	Params int    `yaml:"params,omitempty"`
}

// ExpectClause specifies the expected outcome.
type ExpectClause struct {
	// Error, when set, marks the scenario as a build failure: the pipeline
	// must fail with an error containing this substring, and no text is
	// exported.
	Error string `yaml:"error,omitempty"`

	// Instructions, when set, is the required instruction count of the
	// built circuit.
	Instructions *int `yaml:"instructions,omitempty"`

	// Stable controls the re-import fingerprint check. Defaults to true;
	// set false for deliberately lossy exports.
	Stable *bool `yaml:"stable,omitempty"`
}

// IsStable reports whether the round-trip fingerprint check applies.
func (e ExpectClause) IsStable() bool {
	return e.Stable == nil || *e.Stable
}

// ExportOptions materializes the exporter options, applying defaults for
// omitted fields.
func (s *Scenario) ExportOptions() exporter.Options {
	opts := exporter.DefaultOptions()
	spec := s.Options
	if spec == nil {
		return opts
	}
	if spec.Includes != nil {
		opts.Includes = spec.Includes
	}
	if spec.BasisGates != nil {
		opts.BasisGates = spec.BasisGates
	}
	if spec.DisableConstants != nil {
		opts.DisableConstants = *spec.DisableConstants
	}
	opts.AllowAliasing = spec.AllowAliasing
	if spec.Indent != "" {
		opts.Indent = spec.Indent
	}
	return opts
}

// Factory builds the gate factory for the scenario's custom gates.
func (s *Scenario) Factory() *gates.Table {
	ctors := make([]gates.Constructor, len(s.CustomGates))
	for i, g := range s.CustomGates {
		ctors[i] = gates.Constructor{Name: g.Name, NumQubits: g.Qubits, NumParams: g.Params}
	}
	return gates.NewTable(ctors)
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	for i, g := range s.CustomGates {
		if g.Name == "" {
			return fmt.Errorf("custom_gates[%d]: name is required", i)
		}
		if g.Qubits < 1 {
			return fmt.Errorf("custom_gates[%d]: qubits must be at least 1", i)
		}
		if g.Params < 0 {
			return fmt.Errorf("custom_gates[%d]: params must not be negative", i)
		}
	}
	if s.Expect.Instructions != nil && *s.Expect.Instructions < 0 {
		return fmt.Errorf("expect.instructions must not be negative")
	}
	return nil
}
