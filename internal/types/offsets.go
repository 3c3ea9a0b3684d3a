package types

import (
	"sync"
	"sync/atomic"
)

// OffsetTable holds the field offsets of a record or tuple. The array is
// computed at most once: readers see either nothing or the final slice.
type OffsetTable struct {
	mu      sync.Mutex
	offsets atomic.Pointer[[]int64]
	busy    atomic.Bool
}

// Load returns the published offsets.
func (o *OffsetTable) Load() ([]int64, bool) {
	p := o.offsets.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Busy reports whether a computation is running right now.
func (o *OffsetTable) Busy() bool { return o.busy.Load() }

// Compute publishes the result of fn unless another caller already did.
// fn reports whether its result may be latched; a rejected result is
// returned to the caller but not stored. Compute must not be re-entered
// for the same table from inside fn: callers check Busy first.
func (o *OffsetTable) Compute(fn func() ([]int64, bool)) []int64 {
	if offs, ok := o.Load(); ok {
		return offs
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if offs, ok := o.Load(); ok {
		return offs
	}
	o.busy.Store(true)
	offs, keep := fn()
	o.busy.Store(false)
	if keep {
		o.offsets.Store(&offs)
	}
	return offs
}
