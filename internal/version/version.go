// Package version holds build information of keel and decides which
// snapshot writers the running tool can read.
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// ErrIncompatible is returned for snapshots that the running tool cannot read.
var ErrIncompatible = errors.New("incompatible snapshot version")

// Pretty renders v with coloured components. Strings that are not a
// semantic version come back unchanged.
func Pretty(v string) string {
	sv, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return v
	}
	out := majorColor.Sprint(sv.Major()) + "." + minorColor.Sprint(sv.Minor()) + "." + patchColor.Sprint(sv.Patch())
	if sv.Prerelease() != "" {
		out += "-" + sv.Prerelease()
	}
	if sv.Metadata() != "" {
		out += "+" + sv.Metadata()
	}
	return out
}

// CheckCompatible reports whether a snapshot written by tool version written
// can be read by tool version running: written must satisfy
// ^major.minor of running. Pre-release tags are ignored on both sides.
func CheckCompatible(running, written string) error {
	rv, err := semver.NewVersion(strings.TrimSpace(running))
	if err != nil {
		return fmt.Errorf("running version %q: %w", running, err)
	}
	wv, err := semver.NewVersion(strings.TrimSpace(written))
	if err != nil {
		return fmt.Errorf("%w: writer version %q: %v", ErrIncompatible, written, err)
	}
	// constraints never match pre-releases
	core, err := wv.SetPrerelease("")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	core, err = core.SetMetadata("")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatible, err)
	}
	c, err := semver.NewConstraint(fmt.Sprintf("^%d.%d", rv.Major(), rv.Minor()))
	if err != nil {
		return err
	}
	if !c.Check(&core) {
		return fmt.Errorf("%w: written by %s, running %s", ErrIncompatible, wv, rv)
	}
	return nil
}
