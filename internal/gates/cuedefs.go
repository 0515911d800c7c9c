package gates

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Custom gate definitions are supplied as CUE files of the shape:
//
//	gates: {
//		iswap: { qubits: 2 }
//		rzz:   { qubits: 2, params: 1 }
//	}
//
// `params` defaults to 0. Definition order in the file is preserved.

// CompileError represents a gate-definition compilation error with source
// position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads a CUE gate-definition file and returns its constructors in
// definition order.
func LoadFile(path string) ([]Constructor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gate definitions: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return CompileGates(v)
}

// CompileGates parses a CUE value into gate constructors.
// Uses the CUE SDK's Go API directly (not CLI subprocess).
func CompileGates(v cue.Value) ([]Constructor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	gatesVal := v.LookupPath(cue.ParsePath("gates"))
	if !gatesVal.Exists() {
		return nil, &CompileError{
			Field:   "gates",
			Message: "top-level gates struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := gatesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Constructor
	for iter.Next() {
		name := iter.Label()
		gateVal := iter.Value()

		qubitsVal := gateVal.LookupPath(cue.ParsePath("qubits"))
		if !qubitsVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("gates.%s.qubits", name),
				Message: "qubits is required",
				Pos:     gateVal.Pos(),
			}
		}
		qubits, err := qubitsVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if qubits < 1 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("gates.%s.qubits", name),
				Message: fmt.Sprintf("must be at least 1, got %d", qubits),
				Pos:     qubitsVal.Pos(),
			}
		}

		var params int64
		paramsVal := gateVal.LookupPath(cue.ParsePath("params"))
		if paramsVal.Exists() {
			params, err = paramsVal.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if params < 0 {
				return nil, &CompileError{
					Field:   fmt.Sprintf("gates.%s.params", name),
					Message: fmt.Sprintf("must not be negative, got %d", params),
					Pos:     paramsVal.Pos(),
				}
			}
		}

		out = append(out, Constructor{
			Name:      name,
			NumQubits: int(qubits),
			NumParams: int(params),
		})
	}

	if len(out) == 0 {
		return nil, &CompileError{
			Field:   "gates",
			Message: "at least one gate definition is required",
			Pos:     gatesVal.Pos(),
		}
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors; report the first with position.
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
