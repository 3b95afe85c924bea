package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/globwalk/internal/logging"
	"github.com/Aman-CERP/globwalk/internal/output"
	"github.com/Aman-CERP/globwalk/internal/watch"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	root       string
	debounce   time.Duration
	ignoreCase bool
	logFile    string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [pattern]...",
		Short: "Stream file changes matching glob rules",
		Long: `Watch a directory tree and print matching changes as they happen.

Events are debounced, so rapid bursts such as an editor's save-rename
dance collapse into one line. Directories claimed by an exclude rule are
never registered with the notifier; changes inside them stay invisible.
On platforms without native notification support the watcher falls back
to polling.

Runs until interrupted.`,
		Example: `  # Watch Go sources, ignoring vendor
  globwalk watch '**/*.go' '!vendor'

  # Watch another tree with a longer quiet period
  globwalk watch --root ./site --debounce 2s '**/*.md'`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", ".", "Directory to watch")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet period before emitting a batch (default from config)")
	cmd.Flags().BoolVar(&opts.ignoreCase, "ignore-case", false, "Match patterns case-insensitively")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Write JSON logs to this file instead of stderr")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, patterns []string, opts watchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}
	if len(patterns) == 0 {
		return errors.New("no patterns given and none configured in .globwalk.yaml")
	}

	if opts.logFile != "" {
		logCfg := logging.DefaultConfig()
		logCfg.Level = levelFor(cmd, cfg)
		logCfg.FilePath = opts.logFile
		logCfg.WriteToStderr = false
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("set up log file: %w", err)
		}
		defer cleanup()
		slog.SetDefault(logger)
	} else {
		setupLogging(cmd, cfg)
	}

	root, err := filepath.Abs(opts.root)
	if err != nil {
		return err
	}

	set, err := pattern.NewBuilder(root, patterns...).
		CaseInsensitive(opts.ignoreCase || cfg.Walk.CaseInsensitive).
		Build()
	if err != nil {
		return err
	}

	watchOpts := watch.DefaultOptions()
	watchOpts.Debounce = cfg.DebounceDuration()
	if opts.debounce > 0 {
		watchOpts.Debounce = opts.debounce
	}
	if cfg.Watch.BufferSize > 0 {
		watchOpts.BufferSize = cfg.Watch.BufferSize
	}
	if cfg.Watch.CacheSize > 0 {
		watchOpts.CacheSize = cfg.Watch.CacheSize
	}

	w, err := watch.New(set, watchOpts)
	if err != nil {
		return err
	}

	printer := output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorFor(cmd, cfg), false)

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx) }()

	slog.Info("watch started",
		slog.String("root", w.Root()),
		slog.String("mode", w.Mode()),
		slog.Duration("debounce", watchOpts.Debounce))

	// Start closes both channels on return, so this drain always finishes.
	events, errCh := w.Events(), w.Errors()
	for events != nil || errCh != nil {
		select {
		case batch, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			for _, ev := range batch {
				printer.Event(ev.At, ev.Op.String(), ev.Rel)
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			printer.WalkError(err)
		}
	}

	if dropped := w.DroppedBatches(); dropped > 0 {
		slog.Warn("event batches dropped", slog.Uint64("count", dropped))
	}

	err = <-startErr
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
