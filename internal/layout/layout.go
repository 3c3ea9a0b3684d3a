package layout

import (
	"keel/internal/types"
)

// TypeLayout is the complete layout of one type.
type TypeLayout struct {
	Size  int64
	Align int64

	// Record and tuple members:
	FieldOffsets []int64
	FieldAligns  []int64

	// Tagged unions:
	TagSize   int64
	TagOffset int64
}

// LayoutOf collects size, alignment, member offsets and union tag layout
// under one hold of the engine lock, so the parts are consistent with each
// other. Poisoned and polymorphic types yield a *LayoutError.
func (e *Engine) LayoutOf(t *types.Type) (TypeLayout, error) {
	if t == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if types.IsPolymorphic(t, false) {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrPolymorphic, Type: t}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := TypeLayout{
		Size:  e.SizeOf(t),
		Align: e.AlignOf(t),
	}
	if t.Failed() {
		chain, _ := e.CycleOf(t)
		return TypeLayout{}, &LayoutError{Kind: LayoutErrIllegalCycle, Type: t, Cycle: chain}
	}

	b := types.BaseType(t)
	var members []*types.Entity
	packed := false
	switch b.Kind() {
	case types.KindStruct:
		members = b.Struct().Fields()
		packed = b.Struct().Packed
	case types.KindTuple:
		members = b.Tuple().Vars
	case types.KindUnion:
		if len(b.Union().Variants()) > 0 {
			l.TagSize = e.UnionTagSize(b)
			l.TagOffset = e.VariantBlockSize(b)
		}
	}
	if len(members) > 0 {
		l.FieldOffsets = e.Offsets(b)
		l.FieldAligns = make([]int64, len(members))
		for i, m := range members {
			if packed {
				l.FieldAligns[i] = 1
				continue
			}
			l.FieldAligns[i] = e.AlignOf(m.Type)
		}
	}
	return l, nil
}
