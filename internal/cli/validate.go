package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/ir"
)

// ValidateResult is the payload of a successful validate.
type ValidateResult struct {
	File         string `json:"file"`
	Fingerprint  string `json:"fingerprint"`
	Instructions int    `json:"instructions"`
	Qubits       int    `json:"qubits"`
	Clbits       int    `json:"clbits"`
}

// NewValidateCommand creates the validate command: parse and build a source
// file without producing output.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:           "validate <source.qasm>",
		Short:         "Check that an OpenQASM 3 program parses and builds",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args[0], cmd)
		},
	}
	opts.addImportFlags(cmd)
	return cmd
}

func runValidate(rootOpts *RootOptions, opts *bridgeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	factory, err := loadFactory(opts.GatesFile)
	if err != nil {
		formatter.Error("E_GATES", err.Error())
		return err
	}
	circ, _, err := importFile(path, factory)
	if err != nil {
		formatter.Error("E_INVALID", err.Error())
		return err
	}

	fingerprint, err := ir.Fingerprint(circ)
	if err != nil {
		formatter.Error("E_FINGERPRINT", err.Error())
		return WrapExitError(ExitFailure, "fingerprint", err)
	}

	qubits, clbits := 0, 0
	for _, reg := range circ.Registers {
		if reg.Kind == ir.Quantum {
			qubits += reg.Size
		} else {
			clbits += reg.Size
		}
	}

	result := ValidateResult{
		File:         path,
		Fingerprint:  fingerprint,
		Instructions: len(circ.Instructions),
		Qubits:       qubits,
		Clbits:       clbits,
	}
	text := fmt.Sprintf("%s: valid (%d instructions, %d qubits, %d clbits)\nfingerprint: %s",
		path, result.Instructions, qubits, clbits, fingerprint)
	return formatter.Success(result, text)
}
