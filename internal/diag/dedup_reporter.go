package diag

import (
	"sync"

	"keel/internal/source"
)

type dedupKey struct {
	code    Code
	sev     Severity
	primary source.Span
	msg     string
}

// DedupReporter forwards a diagnostic only the first time its code,
// severity, primary span and message are seen. Layout workers racing on
// the same declaration therefore report it once.
type DedupReporter struct {
	next Reporter
	mu   sync.Mutex
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{code: d.Code, sev: d.Severity, primary: d.Primary, msg: d.Message}
	r.mu.Lock()
	_, dup := r.seen[key]
	if !dup {
		r.seen[key] = struct{}{}
	}
	r.mu.Unlock()
	if !dup && r.next != nil {
		r.next.Report(d)
	}
}
