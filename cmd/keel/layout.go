package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"keel/internal/driver"
	"keel/internal/layout"
	"keel/internal/report"
	"keel/internal/ui"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] [file.toml...]",
	Short: "Lay out every declared type",
	Long:  `Load declaration files, lay out every declared type for the target and print sizes, alignments and offsets. Without arguments the files listed in keel.toml are used.`,
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().String("format", "table", "output format (table|json)")
	layoutCmd.Flags().String("snapshot", "", "also write the snapshot to this file (single input only)")
	layoutCmd.Flags().Bool("fields", false, "list field offsets under each record")
	layoutCmd.Flags().String("ui", "auto", "progress UI for several files (auto|on|off)")
}

type layoutOutput struct {
	format   report.Format
	fields   bool
	snapshot string
}

func runLayout(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out, err := readLayoutOutput(cmd)
	if err != nil {
		return err
	}
	files, err := s.declFiles(args)
	if err != nil {
		return err
	}
	if out.snapshot != "" && len(files) != 1 {
		return fmt.Errorf("--snapshot needs exactly one declaration file, got %d", len(files))
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var results []driver.FileResult
	if len(files) > 1 && !s.quiet && shouldUseTUI(mode, os.Stderr) {
		results, err = runLayoutWithUI(ctx, files, s.driverOptions())
	} else {
		results, err = driver.RunAll(ctx, files, s.driverOptions(), nil)
	}
	if err != nil {
		return err
	}

	failed := false
	for _, fr := range results {
		if fr.Result != nil {
			s.printDiagnostics(fr.Result.Bag, fr.Result.FileSet)
		}
		if fr.Err != nil {
			failed = true
			if fr.Result == nil || fr.Result.Bag.Len() == 0 {
				fmt.Fprintf(os.Stderr, "%s: %v\n", fr.Path, fr.Err)
			}
			continue
		}
		res := fr.Result
		if res.Bag.HasErrors() {
			failed = true
		}
		if len(results) > 1 && out.format == report.FormatTable {
			fmt.Fprintf(cmd.OutOrStdout(), "== %s\n", fr.Path)
		}
		if err := report.Write(cmd.OutOrStdout(), res.Snapshot, out.format, report.Options{
			Color:  s.color,
			Width:  s.widthStdout,
			Fields: out.fields,
		}); err != nil {
			return err
		}
		if out.snapshot != "" {
			if err := writeSnapshotFile(out.snapshot, res.Snapshot); err != nil {
				return err
			}
		}
		if s.timings {
			printTimings(os.Stderr, fr.Path, res.Timing, res.Cached)
		}
	}
	if failed {
		return errReported
	}
	return nil
}

func readLayoutOutput(cmd *cobra.Command) (layoutOutput, error) {
	var out layoutOutput
	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return out, fmt.Errorf("failed to get format flag: %w", err)
	}
	if out.format, err = report.ParseFormat(formatFlag); err != nil {
		return out, err
	}
	if out.fields, err = cmd.Flags().GetBool("fields"); err != nil {
		return out, fmt.Errorf("failed to get fields flag: %w", err)
	}
	if cmd.Flags().Lookup("snapshot") == nil {
		return out, nil
	}
	if out.snapshot, err = cmd.Flags().GetString("snapshot"); err != nil {
		return out, fmt.Errorf("failed to get snapshot flag: %w", err)
	}
	return out, nil
}

func writeSnapshotFile(path string, snap *layout.Snapshot) (err error) {
	// #nosec G304 -- path is provided by the user
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return layout.EncodeSnapshot(f, snap)
}

func runLayoutWithUI(ctx context.Context, files []string, opts driver.Options) ([]driver.FileResult, error) {
	type outcome struct {
		results []driver.FileResult
		err     error
	}
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan outcome, 1)

	go func() {
		res, err := driver.RunAll(ctx, files, opts, driver.ChannelSink{Ch: events})
		outcomeCh <- outcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("layout", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early; keep draining so the workers never block
	go func() {
		for range events {
		}
	}()
	res := <-outcomeCh
	if uiErr != nil {
		return res.results, uiErr
	}
	return res.results, res.err
}
