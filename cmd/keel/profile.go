package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/prof"
)

var profSession *prof.Session

// setupProfiling starts the profilers named by the persistent flags.
func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return err
	}
	profSession = s
	return nil
}

// stopProfiling runs after every command, including failed ones.
func stopProfiling() {
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "keel: %v\n", err)
	}
}
