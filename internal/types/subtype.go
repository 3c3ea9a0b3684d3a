package types

// SubtypeLevel returns how many embedding levels separate src from dst
// through subtype fields, or 0 when src does not embed dst. A pointer
// source may also reach a pointer destination through an embedded value.
func (c Comparer) SubtypeLevel(src, dst *Type, allowPolymorphic bool) int {
	return c.subtypeLevel(src, dst, 0, IsPointer(src), allowPolymorphic, make(map[*Type]struct{}))
}

func (c Comparer) subtypeLevel(src, dst *Type, level int, srcIsPtr, allowPoly bool, visited map[*Type]struct{}) int {
	prev := src
	src = Deref(src)
	if !srcIsPtr {
		srcIsPtr = src != prev
	}
	src = BaseType(src)
	if src == nil || src.kind != KindStruct {
		return 0
	}
	if _, seen := visited[src]; seen {
		return 0
	}
	visited[src] = struct{}{}

	dstPoly := allowPoly && IsPolymorphic(dst, false)
	for _, f := range src.Struct().Fields() {
		if f.Kind != EntityVariable || f.Flags&EntityFlagsIsSubtype == 0 {
			continue
		}
		if dstPoly {
			if fb := BaseType(Deref(f.Type)); fb != nil && fb.kind == KindStruct && fb.Struct().PolyParent == dst {
				return level + 1
			}
		}
		if c.Identical(f.Type, dst) {
			return level + 1
		}
		if srcIsPtr && IsPointer(dst) && c.Identical(f.Type, Deref(dst)) {
			return level + 1
		}
		if n := c.subtypeLevel(f.Type, dst, level+1, srcIsPtr, allowPoly, visited); n > 0 {
			return n
		}
	}
	return 0
}

// IsSubtypeOf reports whether a src value is usable where dst is expected,
// either directly or through embedded subtype fields.
func (c Comparer) IsSubtypeOf(src, dst *Type) bool {
	return c.Identical(src, dst) || c.SubtypeLevel(src, dst, false) > 0
}

// IsSubtypeOf is Comparer.IsSubtypeOf without an alignment source.
func IsSubtypeOf(src, dst *Type) bool { return Comparer{}.IsSubtypeOf(src, dst) }
