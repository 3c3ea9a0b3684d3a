// Package layout computes sizes, alignments and field offsets of type nodes
// for one target.
//
// Results are cached on the nodes themselves. The fast path is a single
// atomic load; a miss takes the engine lock and walks the type graph with a
// fresh TypePath, which detects named types that contain themselves without
// indirection. Such a cycle is reported once through the CycleReporter and
// the types involved answer 0 from then on.
package layout

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"keel/internal/target"
	"keel/internal/types"
)

// failure is the size and alignment of a poisoned type.
const failure int64 = 0

// Options configures an Engine.
type Options struct {
	// Sink receives illegal type cycles. Nil drops them.
	Sink CycleReporter
	// Logger overrides the package logger.
	Logger *zap.Logger
}

// Engine computes layouts of the types of one Store for one target.
// Safe for concurrent use.
type Engine struct {
	store  *types.Store
	target target.Target
	sink   CycleReporter
	log    *zap.Logger

	mu     reentrantMutex
	cycles sync.Map // *types.Type -> []string

	fastHits  atomic.Uint64
	slowPaths atomic.Uint64
	cycleHits atomic.Uint64
}

// New binds an engine to store. The store's caches can only ever hold the
// layouts of one target, so a store claimed by another target is refused.
func New(store *types.Store, tgt target.Target, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("layout: nil type store")
	}
	if err := tgt.Validate(); err != nil {
		return nil, err
	}
	if err := store.ClaimLayout(tgt.Key()); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	return &Engine{
		store:  store,
		target: tgt,
		sink:   opts.Sink,
		log:    log,
	}, nil
}

func (e *Engine) Target() target.Target { return e.target }
func (e *Engine) Store() *types.Store   { return e.store }

// Comparer returns an identity comparer that resolves custom alignments
// through this engine.
func (e *Engine) Comparer() types.Comparer {
	return types.Comparer{Aligner: e}
}

// Identical is types.Identical with alignments computed by e.
func (e *Engine) Identical(x, y *types.Type) bool {
	return e.Comparer().Identical(x, y)
}

// Stats counts cache behaviour of the public entry points.
type Stats struct {
	FastHits  uint64 // answered from a published cache
	SlowPaths uint64 // full recursive computations
	Cycles    uint64 // illegal cycles reported
}

func (e *Engine) Stats() Stats {
	return Stats{
		FastHits:  e.fastHits.Load(),
		SlowPaths: e.slowPaths.Load(),
		Cycles:    e.cycleHits.Load(),
	}
}

// query is the state of one top-level computation.
type query struct {
	path   TypePath
	failed bool
	// chain names the cycle that tainted the query, if known.
	chain []string
}

// SizeOf returns the size of t in bytes, 0 for a poisoned type.
func (e *Engine) SizeOf(t *types.Type) int64 {
	if t == nil {
		return 0
	}
	if t.Failed() {
		e.fastHits.Add(1)
		return failure
	}
	if t.Kind() == types.KindBasic {
		return e.basicSize(t)
	}
	if v := t.CachedSize(); v >= 0 {
		e.fastHits.Add(1)
		return v
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v := t.CachedSize(); v >= 0 {
		e.fastHits.Add(1)
		return v
	}
	e.slowPaths.Add(1)
	q := &query{}
	size := e.sizeOf(t, q)
	if q.failed {
		e.taint(t, q)
		return failure
	}
	size = t.PublishSize(size)
	e.log.Debug("size computed", zap.Stringer("type", t), zap.Int64("size", size))
	return size
}

// AlignOf returns the alignment of t in bytes, 0 for a poisoned type.
func (e *Engine) AlignOf(t *types.Type) int64 {
	if t == nil {
		return 1
	}
	if t.Failed() {
		e.fastHits.Add(1)
		return failure
	}
	if t.Kind() == types.KindBasic {
		return e.basicAlign(t)
	}
	if v := t.CachedAlign(); v > 0 {
		e.fastHits.Add(1)
		return v
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if v := t.CachedAlign(); v > 0 {
		e.fastHits.Add(1)
		return v
	}
	e.slowPaths.Add(1)
	q := &query{}
	align := e.alignOf(t, q)
	if q.failed {
		e.taint(t, q)
		return failure
	}
	align = t.PublishAlign(align)
	e.log.Debug("align computed", zap.Stringer("type", t), zap.Int64("align", align))
	return align
}

// sizeOf is the recursive step. Results are published only while the query
// is untainted; a tainted intermediate would otherwise pin a wrong value.
func (e *Engine) sizeOf(t *types.Type, q *query) int64 {
	if t == nil {
		return 0
	}
	if q.failed {
		return failure
	}
	if t.Failed() {
		e.fail(t, q)
		return failure
	}
	if t.Kind() == types.KindBasic {
		return e.basicSize(t)
	}
	if v := t.CachedSize(); v >= 0 {
		return v
	}
	size := e.computeSize(t, q)
	if q.failed {
		return failure
	}
	return t.PublishSize(size)
}

func (e *Engine) alignOf(t *types.Type, q *query) int64 {
	if t == nil {
		return 1
	}
	if q.failed {
		return failure
	}
	if t.Failed() {
		e.fail(t, q)
		return failure
	}
	if t.Kind() == types.KindBasic {
		return e.basicAlign(t)
	}
	if v := t.CachedAlign(); v > 0 {
		return v
	}
	align := e.computeAlign(t, q)
	if q.failed {
		return failure
	}
	return t.PublishAlign(align)
}

// enter pushes a named type on the query path. It reports false when the
// type is already on the path; the cycle has been handled by then.
func (e *Engine) enter(t *types.Type, q *query) bool {
	start := q.path.Push(t)
	if start < 0 {
		return true
	}
	e.cycle(q, start)
	return false
}

// cycle poisons every member of path[start:] and reports the chain once.
func (e *Engine) cycle(q *query, start int) {
	members := q.path.Chain(start)
	q.failed = true
	q.chain = chainNames(members)

	head := members[0]
	first := head.Poison()
	for _, m := range members {
		m.Poison()
		if n := m.Named(); n != nil {
			if b := n.Base(); b != nil {
				b.Poison()
			}
		}
		e.cycles.Store(m, q.chain)
	}
	if !first {
		return
	}
	e.cycleHits.Add(1)
	e.log.Warn("illegal type cycle", zap.Strings("chain", q.chain))
	if e.sink != nil {
		e.sink.ReportCycle(chainEntities(members))
	}
}

// fail taints q with an already poisoned type.
func (e *Engine) fail(t *types.Type, q *query) {
	q.failed = true
	if q.chain == nil {
		if v, ok := e.cycles.Load(t); ok {
			q.chain = v.([]string)
		}
	}
}

// taint poisons the root of a failed query: it depends on a cycle.
func (e *Engine) taint(t *types.Type, q *query) {
	if t.Poison() {
		e.log.Debug("type depends on illegal cycle", zap.Stringer("type", t), zap.Strings("chain", q.chain))
	}
	if _, ok := e.cycles.Load(t); !ok && q.chain != nil {
		e.cycles.Store(t, q.chain)
	}
}

// CycleOf returns the names of the cycle that poisoned t, if any.
func (e *Engine) CycleOf(t *types.Type) ([]string, bool) {
	v, ok := e.cycles.Load(t)
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

func chainNames(members []*types.Type) []string {
	out := make([]string, 0, len(members)+1)
	for _, m := range members {
		out = append(out, m.Named().Name)
	}
	return append(out, members[0].Named().Name)
}

func chainEntities(members []*types.Type) []*types.Entity {
	out := make([]*types.Entity, 0, len(members))
	for _, m := range members {
		n := m.Named()
		ent := n.TypeName
		if ent == nil {
			ent = &types.Entity{Kind: types.EntityTypeName, Name: n.Name, Type: m}
		}
		out = append(out, ent)
	}
	return out
}
