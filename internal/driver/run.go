// Package driver runs the layout pipeline over a declaration file: load,
// parallel layout of every declared type, snapshot caching and timings.
package driver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"keel/internal/decl"
	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/observ"
	"keel/internal/project"
	"keel/internal/source"
	"keel/internal/target"
	"keel/internal/types"
)

// Options configures Run.
type Options struct {
	Target         target.Target // zero value means target.Default()
	Jobs           int
	MaxDiagnostics int
	// Cache may be nil. Only runs without errors are stored.
	Cache *SnapshotCache
	// Timings appends an OBS6001 diagnostic with the phase durations.
	Timings  bool
	Observer observ.Observer
	// Tool is the version stamped into snapshots.
	Tool string
}

// Result is the outcome of a layout run over one declaration file.
type Result struct {
	FileSet  *source.FileSet
	File     *source.File
	Bag      *diag.Bag
	Unit     *decl.Unit
	Engine   *layout.Engine
	Snapshot *layout.Snapshot
	// Cached is set when Snapshot came from the cache; Engine then has
	// computed nothing yet.
	Cached bool
	Waves  int
	Cyclic []string
	Stats  layout.Stats
	Timing observ.Report
}

// Run loads the declarations in path and lays them out. A non-nil error
// means the file could not be read or decoded; the result still carries
// the file set and the diagnostics explaining it.
func Run(ctx context.Context, path string, opts Options) (*Result, error) {
	var timer *observ.Timer
	if opts.Timings || opts.Observer != nil {
		timer = observ.NewTimer(opts.Observer)
	}
	tgt := opts.Target
	if tgt.Name == "" {
		tgt = target.Default()
	}
	log := Logger()

	res := &Result{
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	loadIdx := timer.Begin("load")
	store := types.NewStore(nil)
	unit, err := decl.Load(res.FileSet, path, store, reporter)
	if err != nil {
		timer.End(loadIdx, "")
		res.Bag.Sort()
		return res, err
	}
	res.Unit = unit
	res.File = res.FileSet.Get(unit.File)
	timer.End(loadIdx, fmt.Sprintf("decls=%d", len(unit.Decls)))

	res.Engine, err = layout.New(store, tgt, layout.Options{Sink: layout.ReporterSink{Reporter: reporter}})
	if err != nil {
		return res, err
	}
	reportGeneric(unit, reporter)

	key := SnapshotKey(project.Digest(res.File.Hash), tgt, opts.Tool)
	if opts.Cache != nil && !res.Bag.HasErrors() {
		snap, ok, cacheErr := opts.Cache.Get(key)
		switch {
		case cacheErr != nil:
			log.Warn("snapshot cache read failed", zap.String("path", path), zap.Error(cacheErr))
		case ok:
			log.Debug("snapshot cache hit", zap.String("path", path))
			res.Snapshot = snap
			res.Cached = true
		default:
			log.Debug("snapshot cache miss", zap.String("path", path))
		}
	}

	if !res.Cached {
		layoutIdx := timer.Begin("layout")
		ul, err := LayoutUnit(ctx, unit, res.Engine, opts.Jobs)
		if err != nil {
			timer.End(layoutIdx, "")
			return res, err
		}
		res.Waves = ul.Waves
		res.Cyclic = ul.Cyclic
		res.Snapshot = res.Engine.NewSnapshot(opts.Tool, res.File.Path)
		res.Snapshot.Entries = ul.Entries
		timer.End(layoutIdx, fmt.Sprintf("waves=%d cyclic=%d", ul.Waves, len(ul.Cyclic)))

		if opts.Cache != nil && !res.Bag.HasErrors() {
			storeIdx := timer.Begin("cache")
			if err := opts.Cache.Put(key, res.Snapshot); err != nil {
				log.Warn("snapshot cache write failed", zap.String("path", path), zap.Error(err))
			}
			timer.End(storeIdx, "")
		}
	}
	res.Stats = res.Engine.Stats()
	res.Bag.Sort()

	if timer != nil {
		res.Timing = timer.Report()
	}
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, timingPayload{
			Path:    res.File.Path,
			Target:  tgt.Name,
			Cached:  res.Cached,
			Waves:   res.Waves,
			TotalMS: res.Timing.TotalMS,
			Phases:  res.Timing.Phases,
		})
	}
	return res, nil
}

// reportGeneric notes every generic declaration: it has no layout of its
// own.
func reportGeneric(unit *decl.Unit, r diag.Reporter) {
	for _, d := range unit.Decls {
		if d.Generic && !d.Broken {
			diag.ReportInfo(r, diag.SemaPolymorphicLayout, d.Span,
				fmt.Sprintf("`%s` is generic; its layout exists only per instantiation", d.Name)).Emit()
		}
	}
}
