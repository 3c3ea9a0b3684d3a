package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/report"
	"keel/internal/version"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <snapshot.mp>",
	Short: "Print a stored layout snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("format", "table", "output format (table|json)")
	inspectCmd.Flags().Bool("fields", false, "list field offsets under each record")
	inspectCmd.Flags().Bool("force", false, "print snapshots written by an incompatible version")
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out, err := readLayoutOutput(cmd)
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	snap, err := readSnapshotFile(args[0])
	if err != nil {
		return err
	}
	if err := version.CheckCompatible(version.Version, snap.Tool); err != nil {
		if !force {
			return fmt.Errorf("%s: %s: %w", args[0], diag.ProjSnapshotVersion.ID(), err)
		}
		if !s.quiet {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", args[0], err)
		}
	}
	return report.Write(cmd.OutOrStdout(), snap, out.format, report.Options{
		Color:  s.color,
		Width:  s.widthStdout,
		Fields: out.fields,
	})
}

func readSnapshotFile(path string) (*layout.Snapshot, error) {
	// #nosec G304 -- path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			cliLogger.Sugar().Warnf("close %s: %v", path, closeErr)
		}
	}()
	snap, err := layout.DecodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
