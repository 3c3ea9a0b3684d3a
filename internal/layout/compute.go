package layout

import (
	"fmt"

	"keel/internal/types"
)

// alignUp rounds n up to a multiple of a. Alignments below 2 leave n as is.
func alignUp(n, a int64) int64 {
	if a <= 1 {
		return n
	}
	r := n + a - 1
	return r - r%a
}

func nextPow2(n int64) int64 {
	if n <= 0 {
		return 0
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

func prevPow2(n int64) int64 {
	if n <= 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n - n>>1
}

func bitSetBytes(lower, upper int64) (int64, bool) {
	bits := upper - lower + 1
	switch {
	case bits <= 8:
		return 1, true
	case bits <= 16:
		return 2, true
	case bits <= 32:
		return 4, true
	case bits <= 64:
		return 8, true
	case bits <= 128:
		return 16, true
	}
	return 8, false
}

func (e *Engine) basicSize(t *types.Type) int64 {
	info := t.Basic()
	if info.Flags&types.BasicFlagUntyped != 0 || info.Kind == types.BasicInvalid {
		panic(fmt.Errorf("layout of %s", info.Name))
	}
	if info.Size > 0 {
		return info.Size
	}
	switch info.Kind {
	case types.BasicString:
		return 2 * e.target.IntSize
	case types.BasicCstring, types.BasicUintptr, types.BasicRawptr:
		return e.target.PtrSize
	case types.BasicInt, types.BasicUint:
		return e.target.IntSize
	}
	return e.target.PtrSize
}

func (e *Engine) basicAlign(t *types.Type) int64 {
	info := t.Basic()
	switch info.Kind {
	case types.BasicString, types.BasicInt, types.BasicUint:
		return e.target.IntSize
	case types.BasicCstring, types.BasicUintptr, types.BasicRawptr:
		return e.target.PtrSize
	case types.BasicAny, types.BasicTypeid:
		return 8
	}
	size := e.basicSize(t)
	switch {
	case info.Flags&types.BasicFlagComplex != 0:
		return size / 2
	case info.Flags&types.BasicFlagQuaternion != 0:
		return size / 4
	}
	return min(max(nextPow2(size), 1), e.target.MaxAlign)
}

func (e *Engine) computeSize(t *types.Type, q *query) int64 {
	switch t.Kind() {
	case types.KindNamed:
		base := t.Named().Base()
		if base == nil {
			panic(fmt.Errorf("layout of unresolved type %s", t.Named().Name))
		}
		if !e.enter(t, q) {
			return failure
		}
		defer q.path.Pop()
		return e.sizeOf(base, q)

	case types.KindPointer, types.KindMultiPointer:
		return e.target.PtrSize

	case types.KindSoaPointer, types.KindSlice:
		return 2 * e.target.IntSize

	case types.KindArray:
		a := t.Array()
		return e.arraySize(a.Elem, a.Count, q)

	case types.KindEnumeratedArray:
		a := t.EnumeratedArray()
		return e.arraySize(a.Elem, a.Count, q)

	case types.KindDynamicArray:
		// data, len, cap, allocator{procedure, data}
		return 3*e.target.IntSize + 2*e.target.PtrSize

	case types.KindMap:
		// data, size, allocator{procedure, data}
		return 4 * e.target.PtrSize

	case types.KindTuple:
		return e.tupleSize(t, q)

	case types.KindEnum:
		return e.sizeOf(t.Enum().Base, q)

	case types.KindBitField:
		return e.sizeOf(t.BitField().Backing, q)

	case types.KindUnion:
		return e.unionSize(t, q)

	case types.KindStruct:
		return e.structSize(t, q)

	case types.KindBitSet:
		bs := t.BitSet()
		if bs.Underlying != nil {
			return e.sizeOf(bs.Underlying, q)
		}
		n, _ := bitSetBytes(bs.Lower, bs.Upper)
		return n

	case types.KindSimdVector:
		v := t.SimdVector()
		return v.Count * e.sizeOf(v.Elem, q)

	case types.KindMatrix:
		m := t.Matrix()
		stride := e.matrixStride(t, q)
		if m.RowMajor {
			return stride * m.Rows
		}
		return stride * m.Cols
	}
	// procedures, type parameters
	return e.target.PtrSize
}

func (e *Engine) arraySize(elem *types.Type, count int64, q *query) int64 {
	if count == 0 {
		return 0
	}
	align := e.alignOf(elem, q)
	if q.failed {
		return failure
	}
	size := e.sizeOf(elem, q)
	return alignUp(size, align)*(count-1) + size
}

func (e *Engine) tupleSize(t *types.Type, q *query) int64 {
	vars := t.Tuple().Vars
	if len(vars) == 0 {
		return 0
	}
	align := e.alignOf(t, q)
	offs := e.tupleOffsets(t, q)
	if q.failed {
		return failure
	}
	last := len(vars) - 1
	return alignUp(offs[last]+e.sizeOf(vars[last].Type, q), align)
}

func (e *Engine) structSize(t *types.Type, q *query) int64 {
	st := t.Struct()
	fields := st.Fields()
	if st.RawUnion {
		align := e.alignOf(t, q)
		if q.failed {
			return failure
		}
		var largest int64
		for _, f := range fields {
			largest = max(largest, e.sizeOf(f.Type, q))
		}
		return alignUp(largest, align)
	}
	if len(fields) == 0 {
		return 0
	}
	align := e.alignOf(t, q)
	if q.failed {
		return failure
	}
	offs := e.structOffsets(t, q)
	if q.failed {
		return failure
	}
	last := len(fields) - 1
	return alignUp(offs[last]+e.sizeOf(fields[last].Type, q), align)
}

func (e *Engine) unionSize(t *types.Type, q *query) int64 {
	u := t.Union()
	variants := u.Variants()
	if len(variants) == 0 {
		return 0
	}
	align := e.alignOf(t, q)
	if q.failed {
		return failure
	}
	var largest int64
	for _, v := range variants {
		largest = max(largest, e.sizeOf(v, q))
	}
	if q.failed {
		return failure
	}

	var size int64
	if types.IsUnionMaybePointer(t) {
		size = largest
		u.SetTagLayout(0, size)
	} else {
		tag := e.unionTagSize(t, q)
		if q.failed {
			return failure
		}
		size = alignUp(largest, tag)
		u.SetTagLayout(tag, size)
		size += tag
	}
	return alignUp(size, align)
}

// unionTagSize picks the smallest tag able to index every variant, raised
// to the variants' alignment and capped at 8 bytes.
func (e *Engine) unionTagSize(t *types.Type, q *query) int64 {
	u := t.Union()
	if tag, _, ok := u.TagLayout(); ok {
		return tag
	}
	n := len(u.Variants())
	if n == 0 {
		return 0
	}
	var tag int64
	switch {
	case n < 1<<8:
		tag = 1
	case n < 1<<16:
		tag = 2
	default:
		tag = 4
	}
	if u.CustomAlign > 0 {
		tag = max(tag, u.CustomAlign)
	} else {
		for _, v := range u.Variants() {
			tag = max(tag, e.alignOf(v, q))
		}
	}
	return min(tag, e.target.MaxAlign, 8)
}

func (e *Engine) matrixStride(t *types.Type, q *query) int64 {
	m := t.Matrix()
	if m.Rows == 0 {
		return 0
	}
	elem := e.sizeOf(m.Elem, q)
	if m.RowMajor {
		return elem * m.Cols
	}
	return elem * m.Rows
}

// matrixAlign keeps matrices unpadded: the alignment is the largest power
// of two dividing the total size, floored at the element alignment.
func (e *Engine) matrixAlign(t *types.Type, q *query) int64 {
	m := t.Matrix()
	rows, cols := max(m.Rows, 1), max(m.Cols, 1)
	elemAlign := e.alignOf(m.Elem, q)
	if q.failed {
		return failure
	}
	elemSize := e.sizeOf(m.Elem, q)

	total := rows * cols * elemSize
	a := prevPow2(total)
	for total != 0 && total%a != 0 {
		a >>= 1
	}
	a = max(a, elemAlign)
	return min(a, e.target.MaxSimdAlign)
}

func (e *Engine) computeAlign(t *types.Type, q *query) int64 {
	switch t.Kind() {
	case types.KindNamed:
		base := t.Named().Base()
		if base == nil {
			panic(fmt.Errorf("layout of unresolved type %s", t.Named().Name))
		}
		if !e.enter(t, q) {
			return failure
		}
		defer q.path.Pop()
		return e.alignOf(base, q)

	case types.KindArray:
		return e.alignOf(t.Array().Elem, q)

	case types.KindEnumeratedArray:
		return e.alignOf(t.EnumeratedArray().Elem, q)

	case types.KindDynamicArray, types.KindSlice, types.KindSoaPointer:
		return e.target.IntSize

	case types.KindMap:
		return e.target.PtrSize

	case types.KindBitField:
		return e.alignOf(t.BitField().Backing, q)

	case types.KindEnum:
		return e.alignOf(t.Enum().Base, q)

	case types.KindTuple:
		var largest int64 = 1
		for _, v := range t.Tuple().Vars {
			largest = max(largest, e.alignOf(v.Type, q))
		}
		return largest

	case types.KindUnion:
		u := t.Union()
		if len(u.Variants()) == 0 {
			return 1
		}
		if u.CustomAlign > 0 {
			return u.CustomAlign
		}
		var largest int64 = 1
		for _, v := range u.Variants() {
			largest = max(largest, e.alignOf(v, q))
		}
		return largest

	case types.KindStruct:
		st := t.Struct()
		if st.CustomAlign > 0 {
			return st.CustomAlign
		}
		if st.Packed {
			return 1
		}
		var largest int64 = 1
		for _, f := range st.Fields() {
			largest = max(largest, e.alignOf(f.Type, q))
		}
		if st.CustomMinFieldAlign > 0 {
			largest = max(largest, st.CustomMinFieldAlign)
		}
		if st.CustomMaxFieldAlign != 0 && st.CustomMaxFieldAlign > st.CustomMinFieldAlign {
			largest = min(largest, st.CustomMaxFieldAlign)
		}
		return largest

	case types.KindBitSet:
		bs := t.BitSet()
		if bs.Underlying != nil {
			return e.alignOf(bs.Underlying, q)
		}
		n, _ := bitSetBytes(bs.Lower, bs.Upper)
		return n

	case types.KindSimdVector:
		return min(max(nextPow2(e.sizeOf(t, q)), 1), 2*e.target.MaxSimdAlign)

	case types.KindMatrix:
		return e.matrixAlign(t, q)
	}
	// pointers, procedures, type parameters
	return min(max(nextPow2(e.sizeOf(t, q)), 1), e.target.MaxAlign)
}
