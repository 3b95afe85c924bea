package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/globwalk/internal/output"
	"github.com/Aman-CERP/globwalk/internal/snapshot"
	"github.com/Aman-CERP/globwalk/pkg/walker"
)

// diffOptions holds CLI flags for diff.
type diffOptions struct {
	db         string
	ignoreCase bool
}

func newDiffCmd() *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff <old> [new]",
		Short: "Compare snapshots, or a snapshot against the tree",
		Long: `Compare two saved snapshots, or with a single name compare that snapshot
against a fresh enumeration using the snapshot's own root and patterns.
Lines are marked "+" for added, "-" for removed and "~" for changed,
where changed means the size or mtime moved.`,
		Example: `  # What changed since the snapshot was taken
  globwalk diff pre-build

  # What changed between two snapshots
  globwalk diff pre-build post-build`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.db, "db", "", "Snapshot database path (default from config)")
	cmd.Flags().BoolVar(&opts.ignoreCase, "ignore-case", false, "Match patterns case-insensitively when re-enumerating")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, args []string, opts diffOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	store, err := openStore(opts.db, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	before, err := store.Entries(ctx, args[0])
	if err != nil {
		return err
	}

	printer := output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorFor(cmd, cfg), false)

	var after []snapshot.Entry
	walkErrs := 0
	if len(args) == 2 {
		after, err = store.Entries(ctx, args[1])
		if err != nil {
			return err
		}
	} else {
		info, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		w, err := walker.NewBuilder(info.Root, info.Patterns...).
			CaseInsensitive(opts.ignoreCase || cfg.Walk.CaseInsensitive).
			Build()
		if err != nil {
			return err
		}
		after, walkErrs, err = collectEntries(ctx, w, printer)
		if err != nil {
			return err
		}
	}

	for _, d := range snapshot.Diff(before, after) {
		printer.Delta(d.Change.String(), d.Rel)
	}

	if walkErrs > 0 {
		return errors.New("walk completed with errors")
	}
	return nil
}
