package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"keel/internal/decl"
	"keel/internal/layout"
)

// UnitLayout holds the layout of every declaration of a unit, parallel to
// Unit.Decls.
type UnitLayout struct {
	Entries []layout.SnapshotEntry
	Waves   int      // dependency waves laid out in parallel
	Cyclic  []string // declarations on or behind a value cycle
}

// LayoutUnit lays out the declarations of unit with up to jobs workers
// (jobs <= 0 means GOMAXPROCS).
//
// Declarations are laid out wave by wave, so each one finds the types it
// contains by value already cached. Declarations left on or behind a cycle
// run serially in file order afterwards: the first cycle member in the file
// is always the one the diagnostic points at.
func LayoutUnit(ctx context.Context, unit *decl.Unit, eng *layout.Engine, jobs int) (*UnitLayout, error) {
	if unit == nil || eng == nil {
		return nil, fmt.Errorf("driver: nil unit or engine")
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	log := Logger()
	started := time.Now()

	topo := decl.ToposortKahn(unit.BuildGraph())
	out := &UnitLayout{
		Entries: make([]layout.SnapshotEntry, len(unit.Decls)),
		Waves:   len(topo.Batches),
	}
	for i, d := range unit.Decls {
		if d.Broken {
			out.Entries[i] = layout.SnapshotEntry{Name: d.Name, Failed: true, Error: "declaration has errors"}
		}
	}

	log.Info("layout started",
		zap.String("unit", unit.Path),
		zap.Int("decls", len(unit.Decls)),
		zap.Int("waves", len(topo.Batches)),
		zap.Int("jobs", jobs))

	for w, batch := range topo.Batches {
		if err := layoutBatch(ctx, unit, eng, batch, jobs, out.Entries); err != nil {
			return nil, err
		}
		log.Debug("wave laid out", zap.Int("wave", w), zap.Int("decls", len(batch)))
	}

	for _, id := range topo.Cycles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := unit.Decls[id]
		out.Entries[id] = eng.Entry(d.Name, d.Type)
		out.Cyclic = append(out.Cyclic, d.Name)
	}

	log.Info("layout finished",
		zap.String("unit", unit.Path),
		zap.Int("cyclic", len(out.Cyclic)),
		zap.Duration("elapsed", time.Since(started)))
	return out, nil
}

func layoutBatch(ctx context.Context, unit *decl.Unit, eng *layout.Engine, batch []decl.DeclID, jobs int, entries []layout.SnapshotEntry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(batch)))
	for _, id := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := unit.Decls[id]
			// each worker owns its slot
			entries[id] = eng.Entry(d.Name, d.Type)
			return nil
		})
	}
	return g.Wait()
}
