package types

// Selection is the resolved access path of a member lookup. Index holds one
// entry per level from the outer type down to the member. Selections are
// values: every step that extends the path copies it, so a candidate path
// abandoned during backtracking never aliases the caller's.
type Selection struct {
	Entity   *Entity
	Index    []int32
	Indirect bool // a pointer was dereferenced somewhere on the path

	// Swizzles: up to four components, two bits each.
	SwizzleCount   uint8
	SwizzleIndices uint8

	IsBitField  bool
	PseudoField bool
}

// Found reports whether the lookup resolved to a member.
func (s Selection) Found() bool { return s.Entity != nil }

// With returns a copy of s with i appended to the path.
func (s Selection) With(i int) Selection {
	idx := make([]int32, len(s.Index), len(s.Index)+1)
	copy(idx, s.Index)
	s.Index = append(idx, int32(i)) // #nosec G115 -- member counts fit in int32
	return s
}

// Combine appends the path of rhs to lhs.
func Combine(lhs, rhs Selection) Selection {
	out := lhs
	out.Indirect = lhs.Indirect || rhs.Indirect
	out.Index = make([]int32, 0, len(lhs.Index)+len(rhs.Index))
	out.Index = append(out.Index, lhs.Index...)
	out.Index = append(out.Index, rhs.Index...)
	return out
}

// Sub returns the path suffix starting at offset, without entity or flags.
func (s Selection) Sub(offset int) Selection {
	if offset >= len(s.Index) {
		return Selection{}
	}
	return Selection{Index: s.Index[offset:len(s.Index):len(s.Index)]}
}

// Trim drops the last path entry.
func (s Selection) Trim() Selection {
	if len(s.Index) == 0 {
		return Selection{}
	}
	n := len(s.Index) - 1
	return Selection{Index: s.Index[:n:n]}
}

// Swizzle returns the component index at position i of a swizzle.
func (s Selection) Swizzle(i int) int {
	return int(s.SwizzleIndices>>(2*uint(i))) & 3
}
