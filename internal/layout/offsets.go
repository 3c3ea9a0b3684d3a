package layout

import (
	"fmt"

	"keel/internal/types"
)

// offsetsOf lays out a member list. Members that are not variables get -1.
func (e *Engine) offsetsOf(vars []*types.Entity, packed, rawUnion bool, minAlign, maxAlign int64, q *query) []int64 {
	offs := make([]int64, len(vars))
	if minAlign == 0 {
		minAlign = 1
	}
	switch {
	case rawUnion:
		// every member starts at 0
	case packed:
		var cur int64
		for i, v := range vars {
			if v.Kind != types.EntityVariable {
				offs[i] = -1
				continue
			}
			offs[i] = cur
			cur += e.sizeOf(v.Type, q)
		}
	default:
		var cur int64
		for i, v := range vars {
			if v.Kind != types.EntityVariable {
				offs[i] = -1
				continue
			}
			align := max(e.alignOf(v.Type, q), minAlign)
			if maxAlign > minAlign {
				align = min(align, maxAlign)
			}
			size := max(e.sizeOf(v.Type, q), 0)
			cur = alignUp(cur, align)
			offs[i] = cur
			cur += size
		}
	}
	return offs
}

func (e *Engine) structOffsets(t *types.Type, q *query) []int64 {
	st := t.Struct()
	if offs, ok := st.Offsets.Load(); ok {
		return offs
	}
	if st.Offsets.Busy() {
		e.busy(q)
		return nil
	}
	fields := st.Fields()
	return st.Offsets.Compute(func() ([]int64, bool) {
		offs := e.offsetsOf(fields, st.Packed, st.RawUnion, st.CustomMinFieldAlign, st.CustomMaxFieldAlign, q)
		return offs, !q.failed
	})
}

func (e *Engine) tupleOffsets(t *types.Type, q *query) []int64 {
	tu := t.Tuple()
	if offs, ok := tu.Offsets.Load(); ok {
		return offs
	}
	if tu.Offsets.Busy() {
		e.busy(q)
		return nil
	}
	return tu.Offsets.Compute(func() ([]int64, bool) {
		offs := e.offsetsOf(tu.Vars, tu.Packed, false, 1, 0, q)
		return offs, !q.failed
	})
}

// busy handles a record whose offsets are requested while being computed:
// the innermost named type on the path contains itself.
func (e *Engine) busy(q *query) {
	if n := q.path.Len(); n > 0 {
		e.cycle(q, n-1)
		return
	}
	q.failed = true
}

// Offsets returns the member offsets of a record or tuple, nil when t has
// none or is poisoned. The slice is shared; callers must not modify it.
func (e *Engine) Offsets(t *types.Type) []int64 {
	b := types.BaseType(t)
	if b == nil || b.Failed() || t.Failed() {
		return nil
	}
	var table *types.OffsetTable
	switch b.Kind() {
	case types.KindStruct:
		table = &b.Struct().Offsets
	case types.KindTuple:
		table = &b.Tuple().Offsets
	default:
		return nil
	}
	if offs, ok := table.Load(); ok {
		e.fastHits.Add(1)
		return offs
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.slowPaths.Add(1)
	q := &query{}
	var offs []int64
	if b.Kind() == types.KindStruct {
		offs = e.structOffsets(b, q)
	} else {
		offs = e.tupleOffsets(b, q)
	}
	if q.failed {
		e.taint(b, q)
		if t != b {
			e.taint(t, q)
		}
		return nil
	}
	return offs
}

// OffsetOf returns the byte offset of member index of t.
func (e *Engine) OffsetOf(t *types.Type, index int) int64 {
	off, _ := e.OffsetOfField(t, index)
	return off
}

// OffsetOfField returns the byte offset and type of member index of t.
// Besides records and tuples it knows the implicit members of strings,
// any, slices, dynamic arrays and array elements; index -1 of a tagged
// union is its tag. Any other index panics, except 0 which is the value
// itself at offset 0.
func (e *Engine) OffsetOfField(t *types.Type, index int) (int64, *types.Type) {
	s := e.store
	b := types.BaseType(t)
	switch b.Kind() {
	case types.KindStruct:
		fields := b.Struct().Fields()
		if index >= 0 && index < len(fields) {
			offs := e.Offsets(b)
			if offs == nil {
				return failure, fields[index].Type
			}
			if offs[index] < 0 {
				panic(fmt.Errorf("offset of non-variable struct member %d of %s", index, types.TypeString(t)))
			}
			return offs[index], fields[index].Type
		}

	case types.KindTuple:
		vars := b.Tuple().Vars
		if index >= 0 && index < len(vars) {
			offs := e.Offsets(b)
			if offs == nil {
				return failure, vars[index].Type
			}
			if offs[index] < 0 {
				panic(fmt.Errorf("offset of non-variable tuple member %d of %s", index, types.TypeString(t)))
			}
			return offs[index], vars[index].Type
		}

	case types.KindArray:
		a := b.Array()
		if index < 0 || int64(index) >= a.Count {
			panic(fmt.Errorf("array index %d out of range for %s", index, types.TypeString(t)))
		}
		return int64(index) * e.stride(a.Elem), a.Elem

	case types.KindBasic:
		switch b.Basic().Kind {
		case types.BasicString:
			switch index {
			case 0:
				return 0, s.MultiPointer(s.Basic(types.BasicU8))
			case 1:
				return e.target.IntSize, s.Basic(types.BasicInt)
			}
		case types.BasicAny:
			switch index {
			case 0:
				return 0, s.Basic(types.BasicRawptr)
			case 1:
				return 8, s.Basic(types.BasicTypeid)
			}
		}
		if elem, n := componentLayout(s, b); n > 0 && index >= 0 && index < n {
			return int64(index) * e.SizeOf(elem), elem
		}

	case types.KindSlice:
		switch index {
		case 0:
			return 0, s.MultiPointer(b.Slice().Elem)
		case 1:
			return e.target.IntSize, s.Basic(types.BasicInt)
		}

	case types.KindDynamicArray:
		switch index {
		case 0:
			return 0, s.MultiPointer(b.DynamicArray().Elem)
		case 1:
			return e.target.IntSize, s.Basic(types.BasicInt)
		case 2:
			return 2 * e.target.IntSize, s.Basic(types.BasicInt)
		case 3:
			return 3 * e.target.IntSize, s.Allocator()
		}

	case types.KindUnion:
		if index == -1 && !types.IsUnionMaybePointer(b) {
			return e.VariantBlockSize(b), e.UnionTagType(b)
		}
	}
	if index != 0 {
		panic(fmt.Errorf("no member %d in %s", index, types.TypeString(t)))
	}
	return 0, nil
}

// componentLayout describes complex and quaternion values as arrays of
// their float components.
func componentLayout(s *types.Store, b *types.Type) (*types.Type, int) {
	info := b.Basic()
	var n int
	switch {
	case info.Flags&types.BasicFlagComplex != 0:
		n = 2
	case info.Flags&types.BasicFlagQuaternion != 0:
		n = 4
	default:
		return nil, 0
	}
	switch info.Size / int64(n) {
	case 2:
		return s.Basic(types.BasicF16), n
	case 4:
		return s.Basic(types.BasicF32), n
	default:
		return s.Basic(types.BasicF64), n
	}
}

// stride is the distance between consecutive array elements.
func (e *Engine) stride(elem *types.Type) int64 {
	return alignUp(e.SizeOf(elem), e.AlignOf(elem))
}

// OffsetOfSelection sums the member offsets along a direct selection path.
// Selections that cross a pointer have no static offset and panic.
func (e *Engine) OffsetOfSelection(t *types.Type, sel types.Selection) int64 {
	if sel.Indirect {
		panic(fmt.Errorf("offset of indirect selection on %s", types.TypeString(t)))
	}
	var offset int64
	cur := t
	for _, idx := range sel.Index {
		off, next := e.OffsetOfField(cur, int(idx))
		offset += off
		if next == nil {
			break
		}
		cur = next
	}
	return offset
}

// SizeOfPretendPacked is the sum of the field sizes of a record, as if it
// were declared packed. Other types report their plain size.
func (e *Engine) SizeOfPretendPacked(t *types.Type) int64 {
	if t == nil {
		return 0
	}
	b := types.CoreType(t)
	if b == nil || b.Kind() != types.KindStruct || b.Struct().Packed {
		return e.SizeOf(t)
	}
	var size int64
	for _, f := range b.Struct().Fields() {
		size += e.SizeOf(f.Type)
	}
	return size
}
