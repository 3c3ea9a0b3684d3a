package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keel/internal/driver"
	"keel/internal/report"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 100 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <file.toml>",
	Short: "Re-run layout whenever a declaration file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("format", "table", "output format (table|json)")
	watchCmd.Flags().Bool("fields", false, "list field offsets under each record")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out, err := readLayoutOutput(cmd)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	// successive versions of the file are cached in memory only
	s.cache, err = driver.NewSnapshotCache("")
	if err != nil {
		return err
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			cliLogger.Warn("closing watcher", zap.Error(closeErr))
		}
	}()
	// editors replace files on save; watching the directory survives that
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	run := func() {
		res, err := driver.Run(ctx, path, s.driverOptions())
		if res != nil {
			s.printDiagnostics(res.Bag, res.FileSet)
		}
		if err != nil {
			if res == nil || res.Bag.Len() == 0 {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
			return
		}
		if err := report.Write(cmd.OutOrStdout(), res.Snapshot, out.format, report.Options{
			Color:  s.color,
			Width:  s.widthStdout,
			Fields: out.fields,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		if s.timings {
			printTimings(os.Stderr, path, res.Timing, res.Cached)
		}
	}

	run()
	if !s.quiet {
		fmt.Fprintf(os.Stderr, "watching %s (Ctrl-C to stop)\n", path)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affects(ev, path) {
				continue
			}
			cliLogger.Debug("declaration file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if !s.quiet {
				fmt.Fprintf(os.Stderr, "\n%s changed, laying out again\n", filepath.Base(path))
			}
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cliLogger.Warn("watch error", zap.Error(err))
		}
	}
}

// affects reports whether ev touched path in a way that may change it.
func affects(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
