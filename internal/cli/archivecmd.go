package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qbridge-dev/qbridge/internal/archive"
)

// archiveOptions holds the flags of the archive command.
type archiveOptions struct {
	DBPath      string
	Fingerprint string
	Token       string
	Limit       int
}

// ArchiveListResult is the payload of a successful archive listing.
type ArchiveListResult struct {
	Runs []archive.Run `json:"runs"`
}

// NewArchiveCommand creates the archive command: inspect recorded runs.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &archiveOptions{}

	cmd := &cobra.Command{
		Use:           "archive",
		Short:         "List runs recorded in an archive database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(rootOpts, opts, cmd)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.DBPath, "db", "", "archive database path")
	flags.StringVar(&opts.Fingerprint, "fingerprint", "", "only runs with this circuit fingerprint")
	flags.StringVar(&opts.Token, "token", "", "look up a single run by token")
	flags.IntVar(&opts.Limit, "limit", 50, "maximum number of runs to list")
	cmd.MarkFlagRequired("db")
	return cmd
}

func runArchive(rootOpts *RootOptions, opts *archiveOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	arc, err := archive.Open(opts.DBPath)
	if err != nil {
		formatter.Error("E_ARCHIVE", err.Error())
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer arc.Close()

	ctx := cmd.Context()
	var runs []archive.Run
	switch {
	case opts.Token != "":
		run, found, err := arc.FindRun(ctx, opts.Token)
		if err != nil {
			formatter.Error("E_ARCHIVE", err.Error())
			return WrapExitError(ExitCommandError, "find run", err)
		}
		if !found {
			msg := fmt.Sprintf("no run with token %q", opts.Token)
			formatter.Error("E_NOT_FOUND", msg)
			return NewExitError(ExitFailure, msg)
		}
		runs = []archive.Run{run}
	case opts.Fingerprint != "":
		runs, err = arc.RunsByFingerprint(ctx, opts.Fingerprint)
		if err != nil {
			formatter.Error("E_ARCHIVE", err.Error())
			return WrapExitError(ExitCommandError, "list runs", err)
		}
	default:
		runs, err = arc.ListRuns(ctx, opts.Limit)
		if err != nil {
			formatter.Error("E_ARCHIVE", err.Error())
			return WrapExitError(ExitCommandError, "list runs", err)
		}
	}

	return formatter.Success(ArchiveListResult{Runs: runs}, formatRunTable(runs))
}

func formatRunTable(runs []archive.Run) string {
	if len(runs) == 0 {
		return "no runs recorded"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-38s %-8s %-16s %s\n", "TOKEN", "DIR", "FINGERPRINT", "CREATED")
	for _, run := range runs {
		fp := run.Fingerprint
		if len(fp) > 16 {
			fp = fp[:16]
		}
		fmt.Fprintf(&sb, "%-38s %-8s %-16s %s\n", run.Token, run.Direction, fp, run.CreatedAt)
	}
	return strings.TrimRight(sb.String(), "\n")
}
