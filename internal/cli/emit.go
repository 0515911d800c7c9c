package cli

import (
	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/archive"
	"github.com/qbridge-dev/qbridge/internal/exporter"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// EmitResult is the payload of a successful emit.
type EmitResult struct {
	Fingerprint string `json:"fingerprint"`
	Program     string `json:"program"`
}

// NewEmitCommand creates the emit command: circuit JSON in, OpenQASM text
// out.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:           "emit <circuit.json>",
		Short:         "Emit OpenQASM 3 text from a circuit JSON file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(rootOpts, opts, args[0], cmd)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&opts.Includes, "include", nil, "include files to declare (default stdgates.inc)")
	flags.StringSliceVar(&opts.BasisGates, "basis-gates", nil, "gates emitted without definitions")
	flags.BoolVar(&opts.Constants, "constants", false, "render symbolic pi/tau/euler parameter forms")
	flags.BoolVar(&opts.AllowAliasing, "allow-aliasing", false, "emit alias declarations and alias operands")
	flags.StringVar(&opts.Indent, "indent", "", "indentation unit inside gate bodies")
	flags.BoolVar(&opts.Layout, "layout", false, "emit hardware qubits using the circuit's layout")
	flags.StringVar(&opts.ArchivePath, "archive", "", "record the run in this archive database")
	return cmd
}

func runEmit(rootOpts *RootOptions, opts *bridgeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	circ, source, err := readCircuit(path)
	if err != nil {
		formatter.Error("E_READ", err.Error())
		return err
	}

	exportOpts := opts.exportOptions()
	text, err := exporter.Export(circ, opts.Layout, exportOpts)
	if err != nil {
		formatter.Error("E_EXPORT", err.Error())
		return WrapExitError(ExitFailure, "export failed", err)
	}
	fingerprint, err := ir.Fingerprint(circ)
	if err != nil {
		formatter.Error("E_FINGERPRINT", err.Error())
		return WrapExitError(ExitFailure, "fingerprint", err)
	}

	if err := recordRun(cmd.Context(), opts.ArchivePath, archive.Run{
		Direction:   archive.DirectionExport,
		Fingerprint: fingerprint,
		Source:      source,
		Output:      text,
		Options:     marshalOptions(exportOpts),
	}, formatter); err != nil {
		formatter.Error("E_ARCHIVE", err.Error())
		return err
	}

	result := EmitResult{Fingerprint: fingerprint, Program: text}
	return formatter.Success(result, text)
}
