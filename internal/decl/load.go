package decl

import (
	"errors"
	"fmt"
	"go/constant"
	"strings"

	"github.com/BurntSushi/toml"

	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/types"
)

type fileModel struct {
	Types []typeModel `toml:"type"`
}

type typeModel struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`
	// Of is the target of distinct and alias declarations and the backing
	// integer of enums and bit_fields.
	Of string `toml:"of"`

	Fields   []fieldModel `toml:"fields"`
	Variants []string     `toml:"variants"`
	Values   []string     `toml:"values"`
	Params   []string     `toml:"params"`

	Packed        bool  `toml:"packed"`
	RawUnion      bool  `toml:"raw_union"`
	NoCopy        bool  `toml:"no_copy"`
	Align         int64 `toml:"align"`
	MinFieldAlign int64 `toml:"min_field_align"`
	MaxFieldAlign int64 `toml:"max_field_align"`
	NoNil         bool  `toml:"no_nil"`
	SharedNil     bool  `toml:"shared_nil"`
}

type fieldModel struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Using   bool   `toml:"using"`
	Subtype bool   `toml:"subtype"`
	Bits    int64  `toml:"bits"`
	Tag     string `toml:"tag"`
}

// Load reads a declaration file into store. Problems with individual
// declarations are reported and mark them broken; the error is non-nil
// only when the file cannot be read or is not valid TOML.
func Load(fs *source.FileSet, path string, store *types.Store, r diag.Reporter) (*Unit, error) {
	id, err := fs.Load(path)
	if err != nil {
		diag.ReportError(r, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to read %s: %v", path, err)).Emit()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Parse(fs, id, store, r)
}

// Parse builds a unit from a file already in fs.
func Parse(fs *source.FileSet, id source.FileID, store *types.Store, r diag.Reporter) (*Unit, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, fmt.Errorf("unknown file id %d", id)
	}
	loc := newLocator(id, file.Content)

	var model fileModel
	meta, err := toml.Decode(string(file.Content), &model)
	if err != nil {
		sp := loc.span(0, 0)
		var pe toml.ParseError
		if errors.As(err, &pe) && pe.Position.Start >= 0 && pe.Position.Start <= len(file.Content) {
			end := min(pe.Position.Start+max(pe.Position.Len, 1), len(file.Content))
			sp = loc.span(pe.Position.Start, end)
		}
		diag.ReportError(r, diag.ProjBadFixture, sp, fmt.Sprintf("malformed declaration file: %v", err)).Emit()
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", file.Path, err)
	}
	for _, key := range meta.Undecoded() {
		diag.ReportWarning(r, diag.ProjBadAttribute, loc.span(0, 0),
			fmt.Sprintf("unknown key %q ignored", key.String())).Emit()
	}

	if store == nil {
		store = types.NewStore(nil)
	}
	b := &builder{
		unit: &Unit{
			Path:   file.Path,
			File:   id,
			Store:  store,
			Scope:  types.NewScope(nil),
			byName: make(map[string]*Decl, len(model.Types)),
		},
		loc:    loc,
		rep:    r,
		models: make(map[*Decl]*typeModel, len(model.Types)),
		index:  make(map[*Decl]int, len(model.Types)),
	}
	b.declare(model.Types)
	for _, d := range b.unit.Decls {
		b.define(d)
	}
	b.propagateBroken()
	return b.unit, nil
}

type builder struct {
	unit   *Unit
	loc    *locator
	rep    diag.Reporter
	models map[*Decl]*typeModel
	index  map[*Decl]int // block index in the file

	firstErr map[*Decl]diag.Diagnostic
}

func (b *builder) report(d *Decl, code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	rb := diag.ReportError(b.rep, code, sp, msg)
	if d != nil {
		d.Broken = true
		if b.firstErr == nil {
			b.firstErr = make(map[*Decl]diag.Diagnostic)
		}
		if _, ok := b.firstErr[d]; !ok {
			b.firstErr[d] = rb.Diagnostic()
		}
	}
	return rb
}

// declare creates the named node of every declaration, so bodies can
// refer to each other in any order.
func (b *builder) declare(models []typeModel) {
	u := b.unit
	for i := range models {
		m := &models[i]
		if m.Name == "" {
			diag.ReportError(b.rep, diag.ProjMissingKey, b.loc.block(i), "declaration without a name").Emit()
			continue
		}
		sp := b.loc.name(i, m.Name)
		m.Name = normalizeName(m.Name)
		if !isIdent(m.Name) {
			diag.ReportError(b.rep, diag.ProjBadAttribute, sp, fmt.Sprintf("invalid type name %q", m.Name)).Emit()
			continue
		}
		if _, basic := u.Store.Registry().ByName(m.Name); basic {
			diag.ReportError(b.rep, diag.SemaDuplicateDecl, sp, fmt.Sprintf("%s redeclares a basic type", m.Name)).Emit()
			continue
		}
		kind, ok := ParseDeclKind(m.Kind)
		if !ok {
			msg := fmt.Sprintf("unknown kind %q for %s", m.Kind, m.Name)
			if m.Kind == "" {
				msg = fmt.Sprintf("missing kind for %s", m.Name)
			}
			diag.ReportError(b.rep, diag.ProjUnknownKind, sp, msg).Emit()
			continue
		}
		if prev, dup := u.byName[m.Name]; dup {
			diag.ReportError(b.rep, diag.SemaDuplicateDecl, sp, fmt.Sprintf("%s redeclared", m.Name)).
				WithNote(prev.Span, "previous declaration").
				Emit()
			continue
		}

		ent := types.NewTypeName(m.Name, sp)
		var named *types.Type
		if kind == DeclAlias {
			named = u.Store.NewAlias(m.Name, ent, nil)
		} else {
			named = u.Store.NewNamed(m.Name, ent, nil)
		}
		u.Scope.Insert(ent)
		d := &Decl{Name: m.Name, Kind: kind, Entity: ent, Type: named, Span: sp}
		u.Decls = append(u.Decls, d)
		u.byName[m.Name] = d
		b.models[d] = m
		b.index[d] = i
	}
}

// define builds the base of d and resolves its named node.
func (b *builder) define(d *Decl) {
	m := b.models[d]
	block := b.index[d]
	p := &exprParser{store: b.unit.Store, resolve: b.unit.resolve}
	from := 0

	expr := func(text, what string) *types.Type {
		sp, next := b.loc.quoted(block, from, text)
		from = next
		if strings.TrimSpace(text) == "" {
			b.report(d, diag.ProjMissingKey, sp, fmt.Sprintf("%s of %s has no type", what, d.Name)).Emit()
			return nil
		}
		t, err := p.parse(text)
		if err != nil {
			var ee *ExprError
			if errors.As(err, &ee) && ee.Unresolved != "" {
				b.report(d, diag.SemaUnresolvedType, sp, fmt.Sprintf("undefined type %s in %s", ee.Unresolved, d.Name)).Emit()
			} else {
				b.report(d, diag.ProjBadTypeExpr, sp, fmt.Sprintf("%s of %s: %v", what, d.Name, err)).Emit()
			}
			return nil
		}
		return t
	}

	if len(m.Params) > 0 {
		if d.Kind != DeclStruct && d.Kind != DeclUnion {
			b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("%s %s cannot have type parameters", d.Kind, d.Name)).Emit()
			return
		}
		p.generics = make(map[string]*types.Type, len(m.Params))
		d.Generic = true
	}
	var params []*types.Entity
	for _, name := range m.Params {
		name = normalizeName(name)
		g := b.unit.Store.NewGeneric(name, types.NewTypeName(name, d.Span), nil, nil)
		p.generics[name] = g
		params = append(params, types.NewParam(name, g, 0))
	}

	var base *types.Type
	switch d.Kind {
	case DeclStruct:
		base = b.structBase(d, m, params, expr)
	case DeclUnion:
		base = b.unionBase(d, m, params, expr)
	case DeclEnum:
		base = b.enumBase(d, m, expr)
	case DeclBitField:
		base = b.bitFieldBase(d, m, expr)
	case DeclDistinct, DeclAlias:
		if m.Of == "" {
			b.report(d, diag.ProjMissingKey, d.Span, fmt.Sprintf("%s %s needs an \"of\" type", d.Kind, d.Name)).Emit()
			return
		}
		base = expr(m.Of, "target")
	}
	d.Deps = dedup(p.deps)
	if d.Broken || base == nil {
		d.Broken = true
		return
	}
	if types.ClosesNamedCycle(d.Type, base) {
		b.report(d, diag.SemaIllegalTypeCycle, d.Span, fmt.Sprintf("invalid recursive type %s", d.Name)).Emit()
		return
	}
	b.unit.Store.SetBase(d.Type, base)
}

func dedup(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (b *builder) checkAlign(d *Decl, what string, v int64) bool {
	if v < 0 || (v != 0 && v&(v-1) != 0) {
		b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("%s of %s must be a power of two, got %d", what, d.Name, v)).Emit()
		return false
	}
	return true
}

func (b *builder) structBase(d *Decl, m *typeModel, params []*types.Entity, expr func(string, string) *types.Type) *types.Type {
	ok := b.checkAlign(d, "align", m.Align) &&
		b.checkAlign(d, "min_field_align", m.MinFieldAlign) &&
		b.checkAlign(d, "max_field_align", m.MaxFieldAlign)
	if m.Packed && m.RawUnion {
		b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("struct %s cannot be both packed and raw_union", d.Name)).Emit()
		ok = false
	}

	fields := make([]*types.Entity, 0, len(m.Fields))
	tags := make([]string, 0, len(m.Fields))
	seen := make(map[string]bool, len(m.Fields))
	for i, f := range m.Fields {
		t := expr(f.Type, fmt.Sprintf("field %q", f.Name))
		if f.Name != "_" && seen[f.Name] {
			sp, _ := b.loc.quoted(b.index[d], 0, f.Name)
			b.report(d, diag.SemaDuplicateDecl, sp, fmt.Sprintf("duplicate field %s in %s", f.Name, d.Name)).Emit()
		}
		seen[f.Name] = true
		if t == nil {
			continue
		}
		var flags types.EntityFlags
		if f.Using {
			flags |= types.EntityFlagUsing
		}
		if f.Subtype {
			flags |= types.EntityFlagSubtype
		}
		fields = append(fields, types.NewField(f.Name, t, int32(i), flags)) // #nosec G115 -- field counts are small
		tags = append(tags, f.Tag)
	}
	if !ok || d.Broken {
		return nil
	}
	spec := types.StructSpec{
		Fields:              fields,
		Tags:                tags,
		Packed:              m.Packed,
		RawUnion:            m.RawUnion,
		NoCopy:              m.NoCopy,
		CustomAlign:         m.Align,
		CustomMinFieldAlign: m.MinFieldAlign,
		CustomMaxFieldAlign: m.MaxFieldAlign,
	}
	if len(params) > 0 {
		spec.Polymorphic = true
		spec.PolyParams = b.unit.Store.NewTuple(params, false)
	}
	return b.unit.Store.NewStruct(spec)
}

func (b *builder) unionBase(d *Decl, m *typeModel, params []*types.Entity, expr func(string, string) *types.Type) *types.Type {
	ok := b.checkAlign(d, "align", m.Align)
	if m.NoNil && m.SharedNil {
		b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("union %s cannot be both no_nil and shared_nil", d.Name)).Emit()
		ok = false
	}
	variants := make([]*types.Type, 0, len(m.Variants))
	for i, v := range m.Variants {
		if t := expr(v, fmt.Sprintf("variant %d", i)); t != nil {
			variants = append(variants, t)
		}
	}
	if !ok || d.Broken {
		return nil
	}
	spec := types.UnionSpec{Variants: variants, CustomAlign: m.Align}
	switch {
	case m.NoNil:
		spec.Kind = types.UnionNoNil
	case m.SharedNil:
		spec.Kind = types.UnionSharedNil
	}
	if len(params) > 0 {
		spec.Polymorphic = true
		spec.PolyParams = b.unit.Store.NewTuple(params, false)
	}
	return b.unit.Store.NewUnion(spec)
}

func (b *builder) integerBacking(d *Decl, m *typeModel, expr func(string, string) *types.Type, fallback types.BasicKind) *types.Type {
	if m.Of == "" {
		return b.unit.Store.Basic(fallback)
	}
	t := expr(m.Of, "backing type")
	if t != nil && !types.IsInteger(t) {
		b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("%s %s must be backed by an integer, not %s", d.Kind, d.Name, types.TypeString(t))).Emit()
		return nil
	}
	return t
}

func (b *builder) enumBase(d *Decl, m *typeModel, expr func(string, string) *types.Type) *types.Type {
	backing := b.integerBacking(d, m, expr, types.BasicInt)
	if backing == nil {
		return nil
	}
	fields := make([]*types.Entity, 0, len(m.Values))
	seen := make(map[string]bool, len(m.Values))
	for i, name := range m.Values {
		if seen[name] {
			sp, _ := b.loc.quoted(b.index[d], 0, name)
			b.report(d, diag.SemaDuplicateDecl, sp, fmt.Sprintf("duplicate value %s in %s", name, d.Name)).Emit()
			continue
		}
		seen[name] = true
		fields = append(fields, types.NewConstant(name, nil, constant.MakeInt64(int64(i))))
	}
	if d.Broken {
		return nil
	}
	return b.unit.Store.NewEnum(backing, fields)
}

func (b *builder) bitFieldBase(d *Decl, m *typeModel, expr func(string, string) *types.Type) *types.Type {
	backing := b.integerBacking(d, m, expr, types.BasicU32)
	if backing == nil {
		return nil
	}
	limit := types.CoreType(backing).Basic().Size * 8
	var (
		fields []*types.Entity
		sizes  []uint8
		tags   []string
		total  int64
	)
	for i, f := range m.Fields {
		t := expr(f.Type, fmt.Sprintf("field %q", f.Name))
		if f.Bits <= 0 || f.Bits > 64 {
			sp, _ := b.loc.quoted(b.index[d], 0, f.Name)
			b.report(d, diag.ProjBadAttribute, sp, fmt.Sprintf("field %s of %s needs 1 to 64 bits, got %d", f.Name, d.Name, f.Bits)).Emit()
			continue
		}
		total += f.Bits
		if t == nil {
			continue
		}
		fields = append(fields, types.NewField(f.Name, t, int32(i), 0)) // #nosec G115 -- field counts are small
		sizes = append(sizes, uint8(f.Bits))                              // #nosec G115 -- checked above
		tags = append(tags, f.Tag)
	}
	if total > limit {
		b.report(d, diag.ProjBadAttribute, d.Span, fmt.Sprintf("bit_field %s needs %d bits but %s holds %d", d.Name, total, types.TypeString(backing), limit)).Emit()
	}
	if d.Broken {
		return nil
	}
	return b.unit.Store.NewBitField(backing, fields, sizes, tags)
}

// propagateBroken marks declarations that contain a broken one by value.
func (b *builder) propagateBroken() {
	u := b.unit
	for changed := true; changed; {
		changed = false
		for _, d := range u.Decls {
			if d.Broken {
				continue
			}
			for _, dep := range d.Deps {
				depDecl, ok := u.byName[dep]
				if !ok || !depDecl.Broken {
					continue
				}
				d.Broken = true
				changed = true
				rb := diag.ReportError(b.rep, diag.SemaDependencyFailed, d.Span,
					fmt.Sprintf("%s contains %s, which has errors", d.Name, dep))
				if first, ok := b.firstErr[depDecl]; ok {
					rb.WithNote(first.Primary, "first error in dependency: "+first.Message)
				} else {
					rb.WithNote(depDecl.Span, "declared here")
				}
				rb.Emit()
				break
			}
		}
	}
}
