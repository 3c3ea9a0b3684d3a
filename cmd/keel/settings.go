package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/diag"
	"keel/internal/diagfmt"
	"keel/internal/driver"
	"keel/internal/project"
	"keel/internal/source"
	"keel/internal/target"
	"keel/internal/version"
)

const noDeclsMessage = "no declaration files given and no [layout].decls in keel.toml\nplease pass them explicitly, e.g.:\n  keel layout types.toml"

// settings are the global flags merged over keel.toml.
type settings struct {
	manifest    *project.Manifest
	target      target.Target
	jobs        int
	maxDiags    int
	color       bool
	quiet       bool
	timings     bool
	diagFormat  diagfmt.Format
	cache       *driver.SnapshotCache
	widthStdout int
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "auto", "on", "off":
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	s := &settings{
		color:       colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr)),
		widthStdout: terminalWidth(os.Stdout),
	}
	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiags, err = flags.GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	formatFlag, err := flags.GetString("diag-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get diag-format flag: %w", err)
	}
	if s.diagFormat, err = diagfmt.ParseFormat(formatFlag); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, ok, err := project.Discover(cwd)
	if err != nil {
		return nil, err
	}
	if ok {
		s.manifest = &m
	}

	targetName := ""
	if s.manifest != nil {
		targetName = s.manifest.Target
		s.jobs = s.manifest.Jobs
	}
	if flags.Changed("target") {
		if targetName, err = flags.GetString("target"); err != nil {
			return nil, fmt.Errorf("failed to get target flag: %w", err)
		}
	}
	if s.target, err = target.Resolve(targetName); err != nil {
		return nil, err
	}
	if flags.Changed("jobs") {
		if s.jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}

	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	useCache := !noCache && (s.manifest == nil || s.manifest.Cache)
	if useCache {
		if s.manifest != nil && s.manifest.CacheDir != "" {
			s.cache, err = driver.NewSnapshotCache(s.manifest.CacheDir)
		} else {
			s.cache, err = driver.OpenSnapshotCache("keel")
		}
		if err != nil {
			// a missing cache only costs time
			cliLogger.Sugar().Warnf("snapshot cache disabled: %v", err)
			s.cache = nil
		}
	}
	return s, nil
}

func (s *settings) driverOptions() driver.Options {
	return driver.Options{
		Target:         s.target,
		Jobs:           s.jobs,
		MaxDiagnostics: s.maxDiags,
		Cache:          s.cache,
		Timings:        s.timings,
		Tool:           version.Version,
	}
}

// declFiles returns args, or the manifest's declaration files.
func (s *settings) declFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if s.manifest != nil && len(s.manifest.Decls) > 0 {
		return s.manifest.Decls, nil
	}
	return nil, fmt.Errorf("%s", noDeclsMessage)
}

// printDiagnostics writes the diagnostics of bag to stderr. Timing
// diagnostics are left to printTimings.
func (s *settings) printDiagnostics(bag *diag.Bag, fs *source.FileSet) {
	if bag == nil {
		return
	}
	items := bag.Items()
	shown := items[:0]
	for _, d := range items {
		if d.Code == diag.ObsTimings {
			continue
		}
		if s.quiet && d.Severity < diag.SevWarning {
			continue
		}
		shown = append(shown, d)
	}
	if s.diagFormat != diagfmt.FormatJSON && len(shown) == 0 {
		return
	}
	err := diagfmt.Write(os.Stderr, shown, fs, diagfmt.Options{
		Format:           s.diagFormat,
		Color:            s.color,
		Width:            terminalWidth(os.Stderr),
		ShowNotes:        true,
		IncludePositions: true,
	})
	if err != nil {
		cliLogger.Sugar().Warnf("failed to write diagnostics: %v", err)
	}
}
