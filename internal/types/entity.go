package types

import (
	"go/constant"
	"sync"

	"keel/internal/source"
)

// EntityKind is the declaration class of an Entity.
type EntityKind uint8

const (
	EntityInvalid EntityKind = iota
	EntityTypeName
	EntityVariable
	EntityConstant
	EntityProcedure
)

func (k EntityKind) String() string {
	switch k {
	case EntityTypeName:
		return "type name"
	case EntityVariable:
		return "variable"
	case EntityConstant:
		return "constant"
	case EntityProcedure:
		return "procedure"
	}
	return "invalid entity"
}

// EntityFlags are the declaration modifiers this package reads.
type EntityFlags uint32

const (
	// EntityFlagField marks a record or bit_field member.
	EntityFlagField EntityFlags = 1 << iota
	// EntityFlagUsing promotes the member's own fields into the enclosing lookup.
	EntityFlagUsing
	// EntityFlagEllipsis marks a variadic ..T parameter.
	EntityFlagEllipsis
	// EntityFlagCVararg marks a C-style variadic parameter.
	EntityFlagCVararg
	EntityFlagParam
	EntityFlagResult
	// EntityFlagSubtype marks a #subtype member.
	EntityFlagSubtype
	EntityFlagBitFieldField
	// EntityFlagSynthetic marks members invented for built-in kinds.
	EntityFlagSynthetic
)

// EntityFlagsIsSubtype are the flags compared by record identity.
const EntityFlagsIsSubtype = EntityFlagUsing | EntityFlagSubtype

// Entity is a declaration produced by name resolution. This package only
// reads it.
type Entity struct {
	Kind  EntityKind
	Name  string
	Type  *Type
	Flags EntityFlags
	Span  source.Span
	// Value is the folded value of a constant.
	Value constant.Value
	// FieldIndex is the source-order index of a record member.
	FieldIndex int32
}

func (e *Entity) Has(f EntityFlags) bool { return e != nil && e.Flags&f == f }

// IsField reports whether e is a data member of a record or bit_field.
func (e *Entity) IsField() bool {
	return e != nil && e.Kind == EntityVariable && e.Flags&EntityFlagField != 0
}

// NewField builds a record member entity.
func NewField(name string, t *Type, index int32, flags EntityFlags) *Entity {
	return &Entity{
		Kind:       EntityVariable,
		Name:       name,
		Type:       t,
		Flags:      flags | EntityFlagField,
		FieldIndex: index,
	}
}

// NewParam builds a tuple member entity.
func NewParam(name string, t *Type, flags EntityFlags) *Entity {
	return &Entity{Kind: EntityVariable, Name: name, Type: t, Flags: flags | EntityFlagParam}
}

// NewConstant builds a constant entity with a folded value.
func NewConstant(name string, t *Type, v constant.Value) *Entity {
	return &Entity{Kind: EntityConstant, Name: name, Type: t, Value: v}
}

// NewTypeName builds the declaring entity of a named type.
func NewTypeName(name string, span source.Span) *Entity {
	return &Entity{Kind: EntityTypeName, Name: name, Span: span}
}

// Scope is an ordered name table. Safe for concurrent use.
type Scope struct {
	mu     sync.RWMutex
	parent *Scope
	names  map[string]*Entity
	order  []*Entity
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: make(map[string]*Entity)}
}

func (s *Scope) Parent() *Scope { return s.parent }

// Insert adds e. When the name is taken the previous entity is returned and
// nothing changes. Blank names are never recorded.
func (s *Scope) Insert(e *Entity) *Entity {
	if e == nil || e.Name == "" || e.Name == "_" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.names[e.Name]; ok {
		return prev
	}
	s.names[e.Name] = e
	s.order = append(s.order, e)
	return nil
}

// LookupCurrent searches this scope only.
func (s *Scope) LookupCurrent(name string) *Entity {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[name]
}

// Lookup searches this scope and its parents.
func (s *Scope) Lookup(name string) *Entity {
	for sc := s; sc != nil; sc = sc.parent {
		if e := sc.LookupCurrent(name); e != nil {
			return e
		}
	}
	return nil
}

// Entities returns a copy of the entities in insertion order.
func (s *Scope) Entities() []*Entity {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entity, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
