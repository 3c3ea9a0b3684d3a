package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"keel/internal/layout"
	"keel/internal/target"
	"keel/internal/version"
)

// versionInfo is what `keel version` knows about the binary and the
// formats it reads and writes.
type versionInfo struct {
	Tool           string   `json:"tool"`
	Version        string   `json:"version"`
	SnapshotSchema uint16   `json:"snapshot_schema"`
	Targets        []string `json:"targets"`
	GitCommit      string   `json:"git_commit,omitempty"`
	BuildDate      string   `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show keel build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, _ := flags.GetBool("full")
	showHash, _ := flags.GetBool("hash")
	showDate, _ := flags.GetBool("date")

	info := collectVersionInfo(showHash || full, showDate || full)
	switch strings.ToLower(format) {
	case "json":
		return renderVersionJSON(cmd.OutOrStdout(), info)
	case "pretty":
		renderVersionPretty(cmd.OutOrStdout(), info)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

// collectVersionInfo fills the optional build fields only when asked for;
// missing ones read "unknown".
func collectVersionInfo(withHash, withDate bool) versionInfo {
	info := versionInfo{
		Tool:           "keel",
		Version:        orDefault(version.Version, "dev"),
		SnapshotSchema: layout.SnapshotSchema,
		Targets:        target.Names(),
	}
	if withHash {
		info.GitCommit = orDefault(version.GitCommit, "unknown")
	}
	if withDate {
		info.BuildDate = orDefault(version.BuildDate, "unknown")
	}
	return info
}

func renderVersionPretty(out io.Writer, info versionInfo) {
	fmt.Fprintf(out, "%s %s\n", info.Tool, version.Pretty(info.Version))
	fmt.Fprintf(out, "snapshot schema %d, targets: %s\n", info.SnapshotSchema, strings.Join(info.Targets, ", "))
	if info.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(out, "built:  %s\n", info.BuildDate)
	}
}

func renderVersionJSON(out io.Writer, info versionInfo) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
