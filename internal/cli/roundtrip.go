package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/builder"
	"github.com/qbridge-dev/qbridge/internal/exporter"
	"github.com/qbridge-dev/qbridge/internal/frontend"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// RoundtripResult is the payload of a successful roundtrip.
type RoundtripResult struct {
	Fingerprint string `json:"fingerprint"`
	Stable      bool   `json:"stable"`
	Program     string `json:"program"`
}

// NewRoundtripCommand creates the roundtrip command: import a source file,
// export it, re-import the export, and require matching fingerprints.
func NewRoundtripCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:           "roundtrip <source.qasm>",
		Short:         "Verify that a program survives an import/export cycle",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip(rootOpts, opts, args[0], cmd)
		},
	}
	opts.addImportFlags(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&opts.Constants, "constants", false, "render symbolic pi/tau/euler parameter forms")
	flags.StringVar(&opts.Indent, "indent", "", "indentation unit inside gate bodies")
	return cmd
}

func runRoundtrip(rootOpts *RootOptions, opts *bridgeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	factory, err := loadFactory(opts.GatesFile)
	if err != nil {
		formatter.Error("E_GATES", err.Error())
		return err
	}
	circ, _, err := importFile(path, factory)
	if err != nil {
		formatter.Error("E_IMPORT", err.Error())
		return err
	}
	fingerprint, err := ir.Fingerprint(circ)
	if err != nil {
		formatter.Error("E_FINGERPRINT", err.Error())
		return WrapExitError(ExitFailure, "fingerprint", err)
	}

	text, err := exporter.Export(circ, false, opts.exportOptions())
	if err != nil {
		formatter.Error("E_EXPORT", err.Error())
		return WrapExitError(ExitFailure, "export failed", err)
	}

	prog, symtab, err := frontend.Parse(text, path+" (exported)")
	if err != nil {
		formatter.Error("E_REIMPORT", err.Error())
		return WrapExitError(ExitFailure, "exported text does not parse", err)
	}
	recirc, err := builder.Build(prog, symtab, factory)
	if err != nil {
		formatter.Error("E_REIMPORT", err.Error())
		return WrapExitError(ExitFailure, "exported text does not build", err)
	}
	refingerprint, err := ir.Fingerprint(recirc)
	if err != nil {
		formatter.Error("E_FINGERPRINT", err.Error())
		return WrapExitError(ExitFailure, "fingerprint", err)
	}

	if fingerprint != refingerprint {
		msg := fmt.Sprintf("fingerprint drift: %s -> %s", fingerprint, refingerprint)
		formatter.Error("E_UNSTABLE", msg)
		return NewExitError(ExitFailure, msg)
	}
	formatter.VerboseLog("round trip stable at %s", fingerprint)

	result := RoundtripResult{Fingerprint: fingerprint, Stable: true, Program: text}
	return formatter.Success(result, fmt.Sprintf("stable\nfingerprint: %s", fingerprint))
}
