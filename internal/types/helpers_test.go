package types

import (
	"go/constant"
	"testing"

	"keel/internal/source"
)

func declare(s *Store, name string, base *Type) *Type {
	return s.NewNamed(name, NewTypeName(name, source.Span{}), base)
}

func structOf(s *Store, fields ...*Entity) *Type {
	return s.NewStruct(StructSpec{Fields: fields})
}

func fld(name string, t *Type, index int, flags EntityFlags) *Entity {
	return NewField(name, t, int32(index), flags) // #nosec G115 -- test indices are small
}

func enumOf(s *Store, base *Type, names ...string) *Type {
	fields := make([]*Entity, len(names))
	for i, n := range names {
		fields[i] = NewConstant(n, nil, constant.MakeInt64(int64(i)))
	}
	return s.NewEnum(base, fields)
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
