package layout

import (
	"fmt"

	"keel/internal/types"
)

func unionOf(t *types.Type) *types.Type {
	b := types.BaseType(t)
	if b == nil || b.Kind() != types.KindUnion {
		panic(fmt.Errorf("expected a union, got %s", types.TypeString(t)))
	}
	return b
}

// UnionTagSize is the width of the union's tag in bytes. Unions without an
// explicit tag (no variants, a single pointer-like variant, or poisoned)
// report 0.
func (e *Engine) UnionTagSize(t *types.Type) int64 {
	b := unionOf(t)
	if len(b.Union().Variants()) == 0 {
		return 0
	}
	e.SizeOf(b)
	tag, _, ok := b.Union().TagLayout()
	if !ok {
		return 0
	}
	return tag
}

// VariantBlockSize is the offset of the tag: the largest variant rounded
// up to the tag width.
func (e *Engine) VariantBlockSize(t *types.Type) int64 {
	b := unionOf(t)
	if len(b.Union().Variants()) == 0 {
		return 0
	}
	e.SizeOf(b)
	_, block, ok := b.Union().TagLayout()
	if !ok {
		return 0
	}
	return block
}

// UnionTagType is the unsigned integer type holding the tag.
func (e *Engine) UnionTagType(t *types.Type) *types.Type {
	switch n := e.UnionTagSize(t); n {
	case 0, 1:
		return e.store.Basic(types.BasicU8)
	case 2:
		return e.store.Basic(types.BasicU16)
	case 4:
		return e.store.Basic(types.BasicU32)
	case 8:
		return e.store.Basic(types.BasicU64)
	default:
		panic(fmt.Errorf("invalid union tag size %d", n))
	}
}

// BitSetToInt is the integer type a bit_set is stored as: its explicit
// underlying integer, or the unsigned integer of the same size.
func (e *Engine) BitSetToInt(t *types.Type) *types.Type {
	b := types.BaseType(t)
	if b == nil || b.Kind() != types.KindBitSet {
		panic(fmt.Errorf("expected a bit_set, got %s", types.TypeString(t)))
	}
	if u := b.BitSet().Underlying; u != nil && types.IsInteger(u) {
		return u
	}
	switch n := e.SizeOf(b); n {
	case 0, 1:
		return e.store.Basic(types.BasicU8)
	case 2:
		return e.store.Basic(types.BasicU16)
	case 4:
		return e.store.Basic(types.BasicU32)
	case 8:
		return e.store.Basic(types.BasicU64)
	case 16:
		return e.store.Basic(types.BasicU128)
	default:
		panic(fmt.Errorf("unsupported bit_set size %d", n))
	}
}

func matrixOf(t *types.Type) *types.Type {
	b := types.BaseType(t)
	if b == nil || b.Kind() != types.KindMatrix {
		panic(fmt.Errorf("expected a matrix, got %s", types.TypeString(t)))
	}
	return b
}

// MatrixStrideInBytes is the distance between rows of a row-major matrix
// or columns of a column-major one.
func (e *Engine) MatrixStrideInBytes(t *types.Type) int64 {
	m := matrixOf(t).Matrix()
	if m.Rows == 0 {
		return 0
	}
	elem := e.SizeOf(m.Elem)
	if m.RowMajor {
		return elem * m.Cols
	}
	return elem * m.Rows
}

// MatrixStrideInElems is MatrixStrideInBytes counted in elements.
func (e *Engine) MatrixStrideInElems(t *types.Type) int64 {
	m := matrixOf(t).Matrix()
	elem := e.SizeOf(m.Elem)
	if elem == 0 {
		return 0
	}
	return e.MatrixStrideInBytes(t) / elem
}

// MatrixIndicesToOffset is the element index of (row, col).
func (e *Engine) MatrixIndicesToOffset(t *types.Type, row, col int64) int64 {
	m := matrixOf(t).Matrix()
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		panic(fmt.Errorf("matrix index [%d, %d] out of range for %s", row, col, types.TypeString(t)))
	}
	stride := e.MatrixStrideInElems(t)
	if m.RowMajor {
		return col + stride*row
	}
	return row + stride*col
}

// MatrixRowMajorIndexToOffset maps a flat row-major index to the element
// index in t's storage order.
func (e *Engine) MatrixRowMajorIndexToOffset(t *types.Type, index int64) int64 {
	m := matrixOf(t).Matrix()
	return e.MatrixIndicesToOffset(t, index/m.Cols, index%m.Cols)
}

// MatrixColumnMajorIndexToOffset is the column-major counterpart.
func (e *Engine) MatrixColumnMajorIndexToOffset(t *types.Type, index int64) int64 {
	m := matrixOf(t).Matrix()
	return e.MatrixIndicesToOffset(t, index%m.Rows, index/m.Rows)
}

// IsLockFree reports whether values of t fit a single atomic access.
func (e *Engine) IsLockFree(t *types.Type) bool {
	c := types.CoreType(t)
	if c == nil || (c.Kind() == types.KindBasic && c.Basic().Kind == types.BasicInvalid) {
		return false
	}
	size := e.SizeOf(c)
	return size > 0 && size <= e.target.MaxAlign && size&(size-1) == 0
}
