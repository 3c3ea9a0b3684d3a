package layout

import (
	"errors"
	"fmt"
	"strings"

	"keel/internal/types"
)

// LayoutErrorKind tells why a type has no layout.
type LayoutErrorKind uint8

const (
	// LayoutErrIllegalCycle: the type contains itself by value, directly or
	// through a type that does.
	LayoutErrIllegalCycle LayoutErrorKind = iota + 1
	// LayoutErrPolymorphic: the type still has unresolved parameters.
	LayoutErrPolymorphic
)

// Sentinels matched by errors.Is against a *LayoutError of the same kind.
var (
	ErrIllegalCycle = errors.New("illegal type cycle")
	ErrPolymorphic  = errors.New("polymorphic type")
)

var kindSentinel = map[LayoutErrorKind]error{
	LayoutErrIllegalCycle: ErrIllegalCycle,
	LayoutErrPolymorphic:  ErrPolymorphic,
}

func (k LayoutErrorKind) String() string {
	if err, ok := kindSentinel[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("LayoutErrorKind(%d)", uint8(k))
}

// LayoutError is returned by LayoutOf for a type without a layout.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  *types.Type
	Cycle []string // type names, set for LayoutErrIllegalCycle
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	name := types.TypeString(e.Type)
	switch e.Kind {
	case LayoutErrIllegalCycle:
		what := name
		if len(e.Cycle) > 0 {
			what = "cycle: " + strings.Join(e.Cycle, " -> ")
		}
		return "recursive value type has infinite size (" + what + ")"
	case LayoutErrPolymorphic:
		return "layout of polymorphic type " + name + " is undefined"
	}
	return fmt.Sprintf("%s (%s)", e.Kind, name)
}

func (e *LayoutError) Is(target error) bool {
	return e != nil && target != nil && kindSentinel[e.Kind] == target
}
