package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/archive"
	"github.com/qbridge-dev/qbridge/internal/builder"
	"github.com/qbridge-dev/qbridge/internal/exporter"
	"github.com/qbridge-dev/qbridge/internal/frontend"
	"github.com/qbridge-dev/qbridge/internal/gates"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// bridgeOptions are the flags shared by the commands that import or export
// circuits.
type bridgeOptions struct {
	GatesFile     string   // CUE file declaring custom gate constructors
	Includes      []string // exporter include list
	BasisGates    []string // exporter basis set
	Constants     bool     // render symbolic pi/tau/euler forms
	AllowAliasing bool
	Indent        string
	Layout        bool   // export with the circuit's physical layout
	ArchivePath   string // record the run when set
}

func (o *bridgeOptions) addImportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.GatesFile, "gates", "", "CUE file declaring custom gate constructors")
	cmd.Flags().StringVar(&o.ArchivePath, "archive", "", "record the run in this archive database")
}

func (o *bridgeOptions) exportOptions() exporter.Options {
	opts := exporter.DefaultOptions()
	if o.Includes != nil {
		opts.Includes = o.Includes
	}
	opts.BasisGates = o.BasisGates
	opts.DisableConstants = !o.Constants
	opts.AllowAliasing = o.AllowAliasing
	if o.Indent != "" {
		opts.Indent = o.Indent
	}
	return opts
}

// loadFactory builds the gate factory: the standard library plus any custom
// constructors declared in the CUE gates file.
func loadFactory(gatesFile string) (*gates.Table, error) {
	if gatesFile == "" {
		return gates.Standard(), nil
	}
	ctors, err := gates.LoadFile(gatesFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load gates file", err)
	}
	return gates.NewTable(ctors), nil
}

// importFile parses and builds an OpenQASM source file.
func importFile(path string, factory gates.Factory) (*ir.Circuit, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "read source", err)
	}
	source := string(data)

	prog, symtab, err := frontend.Parse(source, path)
	if err != nil {
		return nil, source, WrapExitError(ExitFailure, "parse failed", err)
	}
	circ, err := builder.Build(prog, symtab, factory)
	if err != nil {
		return nil, source, WrapExitError(ExitFailure, "build failed", err)
	}
	return circ, source, nil
}

// readCircuit loads a circuit from its JSON form.
func readCircuit(path string) (*ir.Circuit, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "read circuit", err)
	}
	var circ ir.Circuit
	if err := json.Unmarshal(data, &circ); err != nil {
		return nil, string(data), WrapExitError(ExitFailure, "decode circuit", err)
	}
	return &circ, string(data), nil
}

// recordRun writes a run to the archive when a path was given.
func recordRun(ctx context.Context, path string, run archive.Run, f *OutputFormatter) error {
	if path == "" {
		return nil
	}
	arc, err := archive.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer arc.Close()

	run, err = arc.RecordRun(ctx, run)
	if err != nil {
		return WrapExitError(ExitCommandError, "record run", err)
	}
	f.VerboseLog("recorded %s run %s", run.Direction, run.Token)
	return nil
}

func marshalOptions(opts exporter.Options) string {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Sprintf("%+v", opts)
	}
	return string(data)
}
