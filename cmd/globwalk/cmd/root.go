// Package cmd provides the CLI commands for globwalk.
package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/globwalk/internal/config"
	"github.com/Aman-CERP/globwalk/internal/logging"
	"github.com/Aman-CERP/globwalk/internal/output"
	"github.com/Aman-CERP/globwalk/internal/profiling"
	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/version"
	"github.com/Aman-CERP/globwalk/pkg/walker"
)

// Output flags shared by every subcommand.
var (
	colorMode string
	logLevel  string
)

// Profiling flags, for chasing slow walks on big trees.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// walkOptions holds CLI flags for the root walk command.
type walkOptions struct {
	roots         []string
	minDepth      int
	maxDepth      int
	followLinks   bool
	maxOpen       int
	contentsFirst bool
	ignoreCase    bool
	sort          string
	long          bool
	count         bool
}

// NewRootCmd creates the root command for the globwalk CLI.
func NewRootCmd() *cobra.Command {
	var opts walkOptions

	cmd := &cobra.Command{
		Use:   "globwalk [pattern]...",
		Short: "Recursive directory walking with glob filtering",
		Long: `Walk one or more directory trees and print the entries selected by an
ordered list of glob rules. Rules read like .gitignore lines: plain
patterns include, "!" patterns exclude, and when several rules match the
same path the last one wins. Directories claimed by an exclude rule are
pruned, so nothing beneath them is visited at all.

Patterns come from the command line or, when none are given, from the
patterns list in .globwalk.yaml.`,
		Example: `  # All Go files, skipping vendored trees
  globwalk '**/*.go' '!vendor'

  # Images, at most three levels deep
  globwalk --max-depth 3 '**/*.png' '**/*.jpg'

  # Two trees at once, counts only
  globwalk --root ./api --root ./web --count '**/*_test.go'`,
		Version:      version.Version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.SetVersionTemplate("globwalk version {{.Version}}\n")

	// Walk flags, one per builder knob.
	cmd.Flags().StringSliceVar(&opts.roots, "root", []string{"."}, "Directory to walk under (repeatable)")
	cmd.Flags().IntVar(&opts.minDepth, "min-depth", 0, "Suppress entries shallower than this depth")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "Do not descend past this depth (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.followLinks, "follow-links", false, "Follow symlinks to directories")
	cmd.Flags().IntVar(&opts.maxOpen, "max-open", 0, "Bound open directory handles (0 = library default)")
	cmd.Flags().BoolVar(&opts.contentsFirst, "contents-first", false, "Report directories after their contents")
	cmd.Flags().BoolVar(&opts.ignoreCase, "ignore-case", false, "Match patterns case-insensitively")
	cmd.Flags().StringVar(&opts.sort, "sort", config.SortNone, "Sibling order: none, name, or size")
	cmd.Flags().BoolVarP(&opts.long, "long", "l", false, "Show mode, size and mtime per entry")
	cmd.Flags().BoolVarP(&opts.count, "count", "c", false, "Print only the match counts")

	cmd.PersistentFlags().StringVar(&colorMode, "color", config.ColorAuto, "Colorize output: auto, always, or never")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, or error")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write a CPU profile to the given file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write a heap profile to the given file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write an execution trace to the given file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute builds the command tree and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// startProfiling starts CPU and trace profiling when the flags ask for it.
func startProfiling(_ *cobra.Command, _ []string) error {
	var err error

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfiling flushes active profiles and writes the heap profile if
// requested.
func stopProfiling(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	return nil
}

// runWalk enumerates every root concurrently and streams matches to stdout.
func runWalk(ctx context.Context, cmd *cobra.Command, patterns []string, opts walkOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg)
	applyWalkConfig(cmd, cfg, &opts)

	switch strings.ToLower(opts.sort) {
	case config.SortNone, config.SortName, config.SortSize:
	default:
		return fmt.Errorf("unknown sort order %q (want none, name, or size)", opts.sort)
	}

	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}
	if len(patterns) == 0 {
		return cmd.Help()
	}

	printer := output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorFor(cmd, cfg), opts.long)

	// One walker per root. The printer and counters are shared, so entries
	// from different roots may interleave.
	var (
		mu          sync.Mutex
		files, dirs int
		walkErrs    int
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, root := range opts.roots {
		g.Go(func() error {
			w, err := newWalker(root, patterns, opts)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				e, err := w.Next()
				if errors.Is(err, io.EOF) {
					return nil
				}

				mu.Lock()
				if err != nil {
					walkErrs++
					printer.WalkError(err)
				} else {
					if e.IsDir() {
						dirs++
					} else {
						files++
					}
					if !opts.count {
						printer.Entry(e)
					}
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.count {
		printer.Summary(files, dirs, walkErrs)
	}
	if walkErrs > 0 {
		return errors.New("walk completed with errors")
	}
	return nil
}

// newWalker builds one walker with the effective options.
func newWalker(root string, patterns []string, opts walkOptions) (*walker.Walker, error) {
	return walker.NewBuilder(root, patterns...).
		MinDepth(opts.minDepth).
		MaxDepth(opts.maxDepth).
		FollowLinks(opts.followLinks).
		MaxOpen(opts.maxOpen).
		ContentsFirst(opts.contentsFirst).
		CaseInsensitive(opts.ignoreCase).
		SortBy(sortFuncFor(opts.sort)).
		Build()
}

// applyWalkConfig fills walk options from config for flags the user left
// untouched. Flags beat config, config beats built-in defaults.
func applyWalkConfig(cmd *cobra.Command, cfg *config.Config, opts *walkOptions) {
	flags := cmd.Flags()
	if !flags.Changed("min-depth") {
		opts.minDepth = cfg.Walk.MinDepth
	}
	if !flags.Changed("max-depth") {
		opts.maxDepth = cfg.Walk.MaxDepth
	}
	if !flags.Changed("follow-links") {
		opts.followLinks = cfg.Walk.FollowLinks
	}
	if !flags.Changed("max-open") {
		opts.maxOpen = cfg.Walk.MaxOpen
	}
	if !flags.Changed("contents-first") {
		opts.contentsFirst = cfg.Walk.ContentsFirst
	}
	if !flags.Changed("ignore-case") {
		opts.ignoreCase = cfg.Walk.CaseInsensitive
	}
	if !flags.Changed("sort") {
		opts.sort = cfg.Walk.Sort
	}
	if !flags.Changed("long") {
		opts.long = cfg.Output.Long
	}
}

// sortFuncFor maps a sort name to a sibling comparator. Native order for
// anything else.
func sortFuncFor(name string) dirwalk.SortFunc {
	switch strings.ToLower(name) {
	case config.SortName:
		return func(a, b fs.DirEntry) int {
			return strings.Compare(a.Name(), b.Name())
		}
	case config.SortSize:
		return func(a, b fs.DirEntry) int {
			return cmp.Compare(entrySize(a), entrySize(b))
		}
	default:
		return nil
	}
}

// entrySize reads a dir entry's size, zero when stat fails.
func entrySize(e fs.DirEntry) int64 {
	info, err := e.Info()
	if err != nil {
		return 0
	}
	return info.Size()
}

// loadConfig loads the effective configuration, starting from the project
// root that contains the working directory.
func loadConfig() (*config.Config, error) {
	dir, err := config.FindProjectRoot(".")
	if err != nil {
		dir, _ = os.Getwd()
	}
	return config.Load(dir)
}

// setupLogging points slog at stderr with the effective level.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), levelFor(cmd, cfg)))
}

// levelFor resolves the log level, flag over config.
func levelFor(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	return cfg.Log.Level
}

// colorFor resolves the color mode, flag over config.
func colorFor(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("color") {
		return colorMode
	}
	return cfg.Output.Color
}
