package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keel/internal/driver"
)

var replCmd = &cobra.Command{
	Use:   "repl [flags] <file.toml>",
	Short: "Query the layout of declared types interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := s.driverOptions()
	// queries run against the engine, a cached snapshot would not help
	opts.Cache = nil
	res, err := driver.Run(ctx, args[0], opts)
	if res != nil {
		s.printDiagnostics(res.Bag, res.FileSet)
	}
	if err != nil {
		if res == nil || res.Bag.Len() == 0 {
			return err
		}
		return errReported
	}

	session := &replSession{res: res}
	line := liner.NewLiner()
	defer func() {
		if closeErr := line.Close(); closeErr != nil {
			cliLogger.Warn("closing line editor", zap.Error(closeErr))
		}
	}()
	line.SetCtrlCAborts(true)
	line.SetCompleter(session.complete)

	history := historyPath()
	if history != "" {
		if f, err := os.Open(history); err == nil {
			if _, err := line.ReadHistory(f); err != nil {
				cliLogger.Debug("reading repl history", zap.Error(err))
			}
			_ = f.Close()
		}
	}

	out := cmd.OutOrStdout()
	if !s.quiet {
		fmt.Fprintf(out, "%d types from %s for %s; type help for commands\n", len(res.Unit.Decls), res.File.Path, s.target.Name)
	}
	for {
		input, err := line.Prompt("keel> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if input != "" {
			line.AppendHistory(input)
		}
		answer, err := session.eval(input)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if answer != "" {
			fmt.Fprintln(out, answer)
		}
	}

	if history != "" {
		if err := writeHistory(line, history); err != nil {
			cliLogger.Debug("writing repl history", zap.Error(err))
		}
	}
	return nil
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "keel", "repl_history")
}

func writeHistory(line *liner.State, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := line.WriteHistory(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
