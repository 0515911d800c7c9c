package harness

import (
	"fmt"
	"strings"

	"github.com/qbridge-dev/qbridge/internal/builder"
	"github.com/qbridge-dev/qbridge/internal/exporter"
	"github.com/qbridge-dev/qbridge/internal/frontend"
	"github.com/qbridge-dev/qbridge/internal/gates"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// Result captures one scenario execution.
type Result struct {
	// FailureMessage is set for expected-failure scenarios; every other
	// field is then empty.
	FailureMessage string

	Instructions int
	Fingerprint  string
	Exported     string

	// ReimportFingerprint is the fingerprint after re-importing Exported.
	// Filled only for stable scenarios.
	ReimportFingerprint string
}

// Run executes the full pipeline for one scenario. An expected-failure
// scenario succeeds when the build fails with a matching message; any other
// deviation from the expectations is an error.
func Run(scenario *Scenario) (*Result, error) {
	circ, err := importSource(scenario.Source, scenario.Name, scenario.Factory())

	if scenario.Expect.Error != "" {
		if err == nil {
			return nil, fmt.Errorf("scenario %q: expected failure containing %q, pipeline succeeded",
				scenario.Name, scenario.Expect.Error)
		}
		if !strings.Contains(err.Error(), scenario.Expect.Error) {
			return nil, fmt.Errorf("scenario %q: failure %q does not contain %q",
				scenario.Name, err.Error(), scenario.Expect.Error)
		}
		return &Result{FailureMessage: err.Error()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	if want := scenario.Expect.Instructions; want != nil && len(circ.Instructions) != *want {
		return nil, fmt.Errorf("scenario %q: built %d instructions, expected %d",
			scenario.Name, len(circ.Instructions), *want)
	}

	fingerprint, err := ir.Fingerprint(circ)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: fingerprint: %w", scenario.Name, err)
	}

	text, err := exporter.Export(circ, false, scenario.ExportOptions())
	if err != nil {
		return nil, fmt.Errorf("scenario %q: export: %w", scenario.Name, err)
	}

	result := &Result{
		Instructions: len(circ.Instructions),
		Fingerprint:  fingerprint,
		Exported:     text,
	}

	if scenario.Expect.IsStable() {
		rebuilt, err := importSource(text, scenario.Name+" (re-import)", scenario.Factory())
		if err != nil {
			return nil, fmt.Errorf("scenario %q: re-import: %w", scenario.Name, err)
		}
		result.ReimportFingerprint, err = ir.Fingerprint(rebuilt)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: re-import fingerprint: %w", scenario.Name, err)
		}
		if result.ReimportFingerprint != fingerprint {
			return nil, fmt.Errorf("scenario %q: round trip changed the circuit: %s != %s",
				scenario.Name, result.ReimportFingerprint, fingerprint)
		}
	}
	return result, nil
}

func importSource(source, filename string, factory gates.Factory) (*ir.Circuit, error) {
	prog, symtab, err := frontend.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	return builder.Build(prog, symtab, factory)
}
