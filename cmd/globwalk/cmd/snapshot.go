package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/globwalk/internal/config"
	"github.com/Aman-CERP/globwalk/internal/output"
	"github.com/Aman-CERP/globwalk/internal/snapshot"
	"github.com/Aman-CERP/globwalk/pkg/walker"
)

// snapshotOptions holds CLI flags shared by the snapshot subcommands.
type snapshotOptions struct {
	db string
}

func newSnapshotCmd() *cobra.Command {
	var opts snapshotOptions

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and manage enumeration snapshots",
		Long: `Snapshots record the outcome of one enumeration, every matched path with
its size and mtime, in a local SQLite database so a later diff can show
what changed. Saving under an existing name replaces the old snapshot.`,
	}

	cmd.PersistentFlags().StringVar(&opts.db, "db", "", "Snapshot database path (default from config)")

	cmd.AddCommand(newSnapshotSaveCmd(&opts))
	cmd.AddCommand(newSnapshotListCmd(&opts))
	cmd.AddCommand(newSnapshotDeleteCmd(&opts))

	return cmd
}

func newSnapshotSaveCmd(opts *snapshotOptions) *cobra.Command {
	var (
		root       string
		ignoreCase bool
	)

	cmd := &cobra.Command{
		Use:   "save <name> [pattern]...",
		Short: "Record the current enumeration under a name",
		Example: `  globwalk snapshot save pre-build '**/*.go' '!vendor'
  globwalk snapshot save assets --root ./static '**/*.png'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(cmd.Context(), cmd, args[0], args[1:], root, ignoreCase, opts)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Directory to enumerate")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "Match patterns case-insensitively")

	return cmd
}

func newSnapshotListCmd(opts *snapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshotList(cmd.Context(), cmd, opts)
		},
	}
}

func newSnapshotDeleteCmd(opts *snapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotDelete(cmd.Context(), cmd, args[0], opts)
		},
	}
}

func runSnapshotSave(ctx context.Context, cmd *cobra.Command, name string, patterns []string, root string, ignoreCase bool, opts *snapshotOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)

	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}
	if len(patterns) == 0 {
		return errors.New("no patterns given and none configured in .globwalk.yaml")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w, err := walker.NewBuilder(absRoot, patterns...).
		CaseInsensitive(ignoreCase || cfg.Walk.CaseInsensitive).
		Build()
	if err != nil {
		return err
	}

	printer := output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorFor(cmd, cfg), false)
	entries, walkErrs, err := collectEntries(ctx, w, printer)
	if err != nil {
		return err
	}

	store, err := openStore(opts.db, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	info, err := store.Save(ctx, name, absRoot, patterns, entries)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %q: %d entries\n", info.Name, info.EntryCount)
	if walkErrs > 0 {
		return errors.New("walk completed with errors")
	}
	return nil
}

func runSnapshotList(ctx context.Context, cmd *cobra.Command, opts *snapshotOptions) error {
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

	infos, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no snapshots saved")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tENTRIES\tCREATED\tROOT")
	_, _ = fmt.Fprintln(w, "----\t-------\t-------\t----")
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			info.Name, info.EntryCount, info.CreatedAt.Format("2006-01-02 15:04:05"), info.Root)
	}
	return w.Flush()
}

func runSnapshotDelete(ctx context.Context, cmd *cobra.Command, name string, opts *snapshotOptions) error {
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

	if err := store.Delete(ctx, name); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", name)
	return nil
}

// openStore opens the snapshot database, flag over config.
func openStore(db string, cfg *config.Config) (*snapshot.Store, error) {
	path := db
	if path == "" {
		path = cfg.Snapshot.Path
	}
	return snapshot.Open(path)
}

// collectEntries drains one walker into snapshot entries. Walk errors stream
// to the printer and are counted; the snapshot holds whatever was reachable.
func collectEntries(ctx context.Context, w *walker.Walker, printer *output.Printer) ([]snapshot.Entry, int, error) {
	defer func() { _ = w.Close() }()

	var entries []snapshot.Entry
	walkErrs := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, walkErrs, err
		}
		e, err := w.Next()
		if errors.Is(err, io.EOF) {
			return entries, walkErrs, nil
		}
		if err != nil {
			walkErrs++
			printer.WalkError(err)
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Entry vanished between readdir and stat.
			walkErrs++
			printer.WalkError(err)
			continue
		}
		entries = append(entries, snapshot.Entry{
			Rel:     e.Rel(),
			IsDir:   e.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
}
