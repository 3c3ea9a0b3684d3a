// Package target describes the build configuration the layout engine
// consumes: word sizes, alignment caps and byte order.
package target

import (
	"fmt"
	"sort"
	"strings"
)

// Endian is the byte order of the target.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// Target describes the ABI properties layout depends on. All sizes are in bytes.
type Target struct {
	Name         string
	Triple       string
	PtrSize      int64
	IntSize      int64
	MaxAlign     int64
	MaxSimdAlign int64
	Endian       Endian
}

// Key identifies the layout-relevant part of the target.
// Two targets with equal keys produce identical layouts.
func (t Target) Key() string {
	return fmt.Sprintf("%s/p%d/i%d/a%d/s%d/%s", t.Triple, t.PtrSize, t.IntSize, t.MaxAlign, t.MaxSimdAlign, t.Endian)
}

// Validate checks that every width is a positive power of two.
func (t Target) Validate() error {
	fields := []struct {
		name string
		v    int64
	}{
		{"ptr_size", t.PtrSize},
		{"int_size", t.IntSize},
		{"max_align", t.MaxAlign},
		{"max_simd_align", t.MaxSimdAlign},
	}
	for _, f := range fields {
		if f.v <= 0 || f.v&(f.v-1) != 0 {
			return fmt.Errorf("target %q: %s must be a positive power of two, got %d", t.Name, f.name, f.v)
		}
	}
	return nil
}

var presets = map[string]Target{
	"amd64": {
		Name: "amd64", Triple: "x86_64-linux-gnu",
		PtrSize: 8, IntSize: 8, MaxAlign: 16, MaxSimdAlign: 32,
	},
	"i386": {
		Name: "i386", Triple: "i386-linux-gnu",
		PtrSize: 4, IntSize: 4, MaxAlign: 8, MaxSimdAlign: 16,
	},
	"arm64": {
		Name: "arm64", Triple: "aarch64-linux-gnu",
		PtrSize: 8, IntSize: 8, MaxAlign: 16, MaxSimdAlign: 16,
	},
	"wasm32": {
		Name: "wasm32", Triple: "wasm32-freestanding",
		PtrSize: 4, IntSize: 4, MaxAlign: 8, MaxSimdAlign: 16,
	},
	"ppc64be": {
		Name: "ppc64be", Triple: "powerpc64-linux-gnu",
		PtrSize: 8, IntSize: 8, MaxAlign: 16, MaxSimdAlign: 16, Endian: BigEndian,
	},
}

// Default is the host-like 64-bit target.
func Default() Target {
	return presets["amd64"]
}

// Lookup returns the preset with the given name.
func Lookup(name string) (Target, bool) {
	t, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Names lists the preset names in sorted order.
func Names() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
