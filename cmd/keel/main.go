package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"keel/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "keel",
	Short:         "Type layout engine",
	Long:          `keel loads type declarations and computes their sizes, alignments and field offsets for a target`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return setupProfiling(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		syncLogger()
	},
}

// errReported signals that diagnostics with errors were already printed.
var errReported = errors.New("errors reported")

// main registers the subcommands and persistent flags and runs the root
// command. Any error exits with status 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("diag-format", "pretty", "diagnostic output format (pretty|short|json)")
	rootCmd.PersistentFlags().String("log-level", "off", "log level (off|error|warn|info|debug)")
	rootCmd.PersistentFlags().String("target", "", "target preset or target TOML file (default from keel.toml, else amd64)")
	rootCmd.PersistentFlags().Int("jobs", 0, "max parallel layout workers (0=auto)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the snapshot cache")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to file")

	err := rootCmd.Execute()
	stopProfiling()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "keel: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of f, 0 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}
