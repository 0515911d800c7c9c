package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/archive"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// ConvertResult is the payload of a successful convert.
type ConvertResult struct {
	Fingerprint  string          `json:"fingerprint"`
	Instructions int             `json:"instructions"`
	Circuit      json.RawMessage `json:"circuit"`
}

// NewConvertCommand creates the convert command: OpenQASM source in, circuit
// JSON out.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bridgeOptions{}

	cmd := &cobra.Command{
		Use:           "convert <source.qasm>",
		Short:         "Convert an OpenQASM 3 program to circuit JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, opts, args[0], cmd)
		},
	}
	opts.addImportFlags(cmd)
	return cmd
}

func runConvert(rootOpts *RootOptions, opts *bridgeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	factory, err := loadFactory(opts.GatesFile)
	if err != nil {
		formatter.Error("E_GATES", err.Error())
		return err
	}
	circ, source, err := importFile(path, factory)
	if err != nil {
		formatter.Error("E_IMPORT", err.Error())
		return err
	}

	fingerprint, err := ir.Fingerprint(circ)
	if err != nil {
		formatter.Error("E_FINGERPRINT", err.Error())
		return WrapExitError(ExitFailure, "fingerprint", err)
	}
	circuitJSON, err := json.MarshalIndent(circ, "", "  ")
	if err != nil {
		formatter.Error("E_ENCODE", err.Error())
		return WrapExitError(ExitFailure, "encode circuit", err)
	}
	formatter.VerboseLog("built %d instructions from %s", len(circ.Instructions), path)

	if err := recordRun(cmd.Context(), opts.ArchivePath, archive.Run{
		Direction:   archive.DirectionImport,
		Fingerprint: fingerprint,
		Source:      source,
		Output:      string(circuitJSON),
	}, formatter); err != nil {
		formatter.Error("E_ARCHIVE", err.Error())
		return err
	}

	result := ConvertResult{
		Fingerprint:  fingerprint,
		Instructions: len(circ.Instructions),
		Circuit:      circuitJSON,
	}
	text := fmt.Sprintf("%s\nfingerprint: %s", circuitJSON, fingerprint)
	return formatter.Success(result, text)
}
