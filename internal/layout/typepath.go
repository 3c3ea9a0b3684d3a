package layout

import (
	"sync"

	"keel/internal/types"
)

// TypePath is the stack of named types a layout query is currently inside.
// A named type met twice contains itself without indirection.
type TypePath struct {
	mu      sync.Mutex
	entries []*types.Type
}

// sameDecl compares named types by declaration. Named nodes built without
// a type name entity compare by identity.
func sameDecl(a, b *types.Type) bool {
	if a == b {
		return true
	}
	ea, eb := a.Named().TypeName, b.Named().TypeName
	return ea != nil && ea == eb
}

// Push appends t unless it is already on the path. It returns the index of
// the earlier entry for t, or -1 when t was pushed. Only named types are
// tracked; anything else is ignored.
func (p *TypePath) Push(t *types.Type) int {
	if t == nil || t.Kind() != types.KindNamed {
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.entries {
		if sameDecl(e, t) {
			return i
		}
	}
	p.entries = append(p.entries, t)
	return -1
}

func (p *TypePath) Pop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.entries); n > 0 {
		p.entries[n-1] = nil
		p.entries = p.entries[:n-1]
	}
}

func (p *TypePath) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Chain returns a copy of the entries from start to the top.
func (p *TypePath) Chain(start int) []*types.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	if start < 0 || start >= len(p.entries) {
		return nil
	}
	out := make([]*types.Type, len(p.entries)-start)
	copy(out, p.entries[start:])
	return out
}
