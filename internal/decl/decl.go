// Package decl loads declaration files: TOML descriptions of named types
// that become type nodes and entities of a types.Store.
//
// A file is a list of [[type]] tables:
//
//	[[type]]
//	name = "Node"
//	kind = "struct"
//	fields = [
//	  { name = "next", type = "^Node" },
//	  { name = "value", type = "i64" },
//	]
//
// Kinds are struct, union, enum, bit_field, distinct and alias. Member
// types use the same expression syntax types.TypeString renders.
package decl

import (
	"fmt"

	"keel/internal/source"
	"keel/internal/types"
)

// DeclKind is the declaration form of a named type.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclStruct
	DeclUnion
	DeclEnum
	DeclBitField
	DeclDistinct
	DeclAlias
)

var declKindNames = [...]string{
	DeclInvalid:  "invalid",
	DeclStruct:   "struct",
	DeclUnion:    "union",
	DeclEnum:     "enum",
	DeclBitField: "bit_field",
	DeclDistinct: "distinct",
	DeclAlias:    "alias",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return fmt.Sprintf("DeclKind(%d)", k)
}

// ParseDeclKind maps the kind key of a declaration.
func ParseDeclKind(s string) (DeclKind, bool) {
	for k, name := range declKindNames {
		if name == s && k != int(DeclInvalid) {
			return DeclKind(k), true // #nosec G115 -- bounded by the table
		}
	}
	return DeclInvalid, false
}

// Decl is one declared type.
type Decl struct {
	Name   string
	Kind   DeclKind
	Entity *types.Entity
	Type   *types.Type // the named node
	Span   source.Span // the declaration's name

	// Deps are declarations this one contains by value.
	Deps []string
	// Broken declarations failed to build, or depend on one that did.
	// Their named node may have no base and must not be laid out.
	Broken bool
	// Generic declarations have type parameters.
	Generic bool
}

// Unit is the result of loading one declaration file.
type Unit struct {
	Path  string
	File  source.FileID
	Store *types.Store
	Scope *types.Scope
	Decls []*Decl

	byName map[string]*Decl
}

// Lookup returns the declaration called name.
func (u *Unit) Lookup(name string) (*Decl, bool) {
	d, ok := u.byName[normalizeName(name)]
	return d, ok
}

// Ready lists the declarations that can be laid out, in file order.
func (u *Unit) Ready() []*Decl {
	out := make([]*Decl, 0, len(u.Decls))
	for _, d := range u.Decls {
		if !d.Broken {
			out = append(out, d)
		}
	}
	return out
}

// ParseType builds a type from an expression in the unit's scope.
func (u *Unit) ParseType(expr string) (*types.Type, error) {
	p := &exprParser{store: u.Store, resolve: u.resolve}
	t, err := p.parse(expr)
	if err != nil {
		return nil, err
	}
	for _, name := range p.deps {
		if d, ok := u.byName[name]; ok && d.Broken {
			return nil, fmt.Errorf("type %s has errors", name)
		}
	}
	return t, nil
}

func (u *Unit) resolve(name string) (*types.Type, bool) {
	e := u.Scope.Lookup(name)
	if e == nil || e.Kind != types.EntityTypeName || e.Type == nil {
		return nil, false
	}
	return e.Type, true
}
