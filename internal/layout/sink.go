package layout

import (
	"fmt"

	"keel/internal/diag"
	"keel/internal/types"
)

// CycleReporter receives an illegal type cycle. chain lists the type names
// of the cycle starting with the one that closed it.
type CycleReporter interface {
	ReportCycle(chain []*types.Entity)
}

// CycleReporterFunc adapts a function to CycleReporter.
type CycleReporterFunc func(chain []*types.Entity)

func (f CycleReporterFunc) ReportCycle(chain []*types.Entity) { f(chain) }

// ReporterSink turns cycles into SEM3001 diagnostics: one error on the
// first type name, one "refers to" note per member, and a closing note
// naming the first type again.
type ReporterSink struct {
	Reporter diag.Reporter
}

func (s ReporterSink) ReportCycle(chain []*types.Entity) {
	if s.Reporter == nil || len(chain) == 0 {
		return
	}
	head := chain[0]
	b := diag.ReportError(s.Reporter, diag.SemaIllegalTypeCycle, head.Span,
		fmt.Sprintf("illegal type declaration cycle of `%s`", head.Name))
	for _, e := range chain {
		b.WithNote(e.Span, fmt.Sprintf("\t%s refers to", e.Name))
	}
	b.WithNote(head.Span, "\t"+head.Name)
	b.Emit()
}
