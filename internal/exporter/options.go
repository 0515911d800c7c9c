package exporter

import (
	"fmt"

	"github.com/qbridge-dev/qbridge/internal/gates"
)

// Options controls text generation.
type Options struct {
	// Includes are emitted as include statements, deduplicated in the given
	// order. Gates declared by an include are never given inline definitions.
	Includes []string

	// BasisGates are treated as opaque hardware primitives: calls are
	// emitted but definitions are suppressed even when the circuit carries
	// one.
	BasisGates []string

	// DisableConstants renders every folded parameter as a decimal literal.
	// When false, exact rational multiples of pi, tau, and euler print
	// symbolically and each used constant gets one const declaration.
	DisableConstants bool

	// AllowAliasing emits alias declarations and keeps alias names on
	// operands. Under a layout the declarations target hardware qubits.
	// When false every operand is resolved to its physical register
	// element, or its hardware slot when a layout applies.
	AllowAliasing bool

	// Indent is the indentation unit inside gate bodies.
	Indent string
}

// DefaultOptions mirrors the defaults of the reference dumper: the standard
// include, folded decimal parameters, physical operand naming, two-space
// indentation.
func DefaultOptions() Options {
	return Options{
		Includes:         []string{gates.StdGatesInclude},
		DisableConstants: true,
		Indent:           "  ",
	}
}

// ExportError reports a malformed circuit or option set. Instruction is the
// index of the offending instruction, or -1 when the failure is not tied to
// one.
type ExportError struct {
	Message     string
	Instruction int
}

func (e *ExportError) Error() string {
	if e.Instruction >= 0 {
		return fmt.Sprintf("instruction %d: %s", e.Instruction, e.Message)
	}
	return e.Message
}

func exportErrorf(inst int, format string, args ...any) *ExportError {
	return &ExportError{Message: fmt.Sprintf(format, args...), Instruction: inst}
}
