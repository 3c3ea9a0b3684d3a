package target

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type targetFile struct {
	Target targetConfig `toml:"target"`
}

type targetConfig struct {
	Name         string `toml:"name"`
	Base         string `toml:"base"`
	Triple       string `toml:"triple"`
	PtrSize      int64  `toml:"ptr_size"`
	IntSize      int64  `toml:"int_size"`
	MaxAlign     int64  `toml:"max_align"`
	MaxSimdAlign int64  `toml:"max_simd_align"`
	Endian       string `toml:"endian"`
}

// LoadFile reads a custom target description:
//
//	[target]
//	name = "tiny"
//	base = "wasm32"      # optional preset to start from
//	ptr_size = 4
//	int_size = 4
//	max_align = 8
//	max_simd_align = 16
//	endian = "little"
//
// Without base every width key is required.
func LoadFile(path string) (Target, error) {
	var f targetFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Target{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("target") {
		return Target{}, fmt.Errorf("%s: missing [target]", path)
	}
	cfg := f.Target

	var t Target
	if cfg.Base != "" {
		base, ok := Lookup(cfg.Base)
		if !ok {
			return Target{}, fmt.Errorf("%s: unknown base target %q (known: %s)", path, cfg.Base, strings.Join(Names(), ", "))
		}
		t = base
	} else {
		for _, key := range []string{"ptr_size", "int_size", "max_align", "max_simd_align"} {
			if !meta.IsDefined("target", key) {
				return Target{}, fmt.Errorf("%s: missing [target].%s", path, key)
			}
		}
	}

	if meta.IsDefined("target", "name") {
		t.Name = cfg.Name
	}
	if meta.IsDefined("target", "triple") {
		t.Triple = cfg.Triple
	}
	if meta.IsDefined("target", "ptr_size") {
		t.PtrSize = cfg.PtrSize
	}
	if meta.IsDefined("target", "int_size") {
		t.IntSize = cfg.IntSize
	}
	if meta.IsDefined("target", "max_align") {
		t.MaxAlign = cfg.MaxAlign
	}
	if meta.IsDefined("target", "max_simd_align") {
		t.MaxSimdAlign = cfg.MaxSimdAlign
	}
	if meta.IsDefined("target", "endian") {
		switch strings.ToLower(cfg.Endian) {
		case "little", "le":
			t.Endian = LittleEndian
		case "big", "be":
			t.Endian = BigEndian
		default:
			return Target{}, fmt.Errorf("%s: [target].endian must be little or big, got %q", path, cfg.Endian)
		}
	}
	if t.Name == "" {
		t.Name = "custom"
	}
	if t.Triple == "" {
		t.Triple = t.Name
	}
	if err := t.Validate(); err != nil {
		return Target{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Resolve accepts either a preset name or a path to a target TOML file.
func Resolve(nameOrPath string) (Target, error) {
	if nameOrPath == "" {
		return Default(), nil
	}
	if t, ok := Lookup(nameOrPath); ok {
		return t, nil
	}
	if strings.HasSuffix(nameOrPath, ".toml") {
		return LoadFile(nameOrPath)
	}
	return Target{}, fmt.Errorf("unknown target %q (known: %s)", nameOrPath, strings.Join(Names(), ", "))
}
