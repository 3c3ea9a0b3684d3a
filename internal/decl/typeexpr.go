package decl

import (
	"fmt"
	"go/constant"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"keel/internal/types"
)

// ExprError describes a type expression that could not be built.
type ExprError struct {
	Expr string
	Pos  int // byte offset into Expr
	Msg  string
	// Unresolved is set when the expression names an unknown type.
	Unresolved string
}

func (e *ExprError) Error() string {
	if e.Unresolved != "" {
		return fmt.Sprintf("undefined type %q in %q", e.Unresolved, e.Expr)
	}
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// isIdent reports whether s is a type name. Names compare in NFC.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError || !(isIdentStart(r) || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return true
}

// normalizeName returns the NFC form under which names are declared and
// looked up.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}

func scan(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			j := i + size
			for j < len(src) {
				r, n := utf8.DecodeRuneInString(src[j:])
				if !isIdentStart(r) && !unicode.IsDigit(r) {
					break
				}
				j += n
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokInt, text: src[i:j], pos: i})
			i = j
		case strings.HasPrefix(src[i:], "..="), strings.HasPrefix(src[i:], "..<"):
			toks = append(toks, token{kind: tokPunct, text: src[i : i+3], pos: i})
			i += 3
		case strings.HasPrefix(src[i:], "->"):
			toks = append(toks, token{kind: tokPunct, text: "->", pos: i})
			i += 2
		case c < utf8.RuneSelf && strings.IndexByte("^[](),;:#$-", byte(c)) >= 0:
			toks = append(toks, token{kind: tokPunct, text: string(c), pos: i})
			i++
		default:
			return nil, &ExprError{Expr: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// exprParser builds type nodes from the expression syntax used in
// declaration files, which is the syntax types.TypeString renders.
type exprParser struct {
	store    *types.Store
	resolve  func(name string) (*types.Type, bool)
	generics map[string]*types.Type

	src  string
	toks []token
	pos  int

	// indirect counts enclosing constructors that break value containment.
	indirect int
	// deps lists named types reached by value, in order of appearance.
	deps []string
}

func (p *exprParser) parse(src string) (*types.Type, error) {
	src = normalizeName(src)
	toks, err := scan(src)
	if err != nil {
		return nil, err
	}
	p.src, p.toks, p.pos = src, toks, 0
	t, err := p.typ()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %q after type", tok.text)
	}
	return t, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) errorf(tok token, format string, args ...any) error {
	return &ExprError{Expr: p.src, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *exprParser) accept(text string) bool {
	if tok := p.peek(); tok.kind != tokEOF && tok.kind != tokInt && tok.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) expect(text string) error {
	if p.accept(text) {
		return nil
	}
	tok := p.peek()
	if tok.kind == tokEOF {
		return p.errorf(tok, "expected %q, got end of expression", text)
	}
	return p.errorf(tok, "expected %q, got %q", text, tok.text)
}

func (p *exprParser) integer() (int64, error) {
	neg := p.accept("-")
	tok := p.next()
	if tok.kind != tokInt {
		return 0, p.errorf(tok, "expected integer")
	}
	n, err := strconv.ParseInt(tok.text, 10, 64)
	if err != nil {
		return 0, p.errorf(tok, "integer %s out of range", tok.text)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// behind parses a type that is not contained by value.
func (p *exprParser) behind() (*types.Type, error) {
	p.indirect++
	defer func() { p.indirect-- }()
	return p.typ()
}

func (p *exprParser) typ() (*types.Type, error) {
	s := p.store
	tok := p.peek()
	switch {
	case p.accept("^"):
		elem, err := p.behind()
		if err != nil {
			return nil, err
		}
		return s.Pointer(elem), nil

	case p.accept("["):
		return p.bracketed()

	case p.accept("#"):
		return p.directive()

	case p.accept("$"):
		name := p.next()
		if name.kind != tokIdent {
			return nil, p.errorf(name, "expected type parameter name")
		}
		g, ok := p.generics[name.text]
		if !ok {
			return nil, &ExprError{Expr: p.src, Pos: name.pos, Unresolved: "$" + name.text}
		}
		return g, nil

	case tok.kind == tokIdent:
		switch tok.text {
		case "map":
			p.next()
			return p.mapType()
		case "matrix":
			p.next()
			return p.matrix(false)
		case "bit_set":
			p.next()
			return p.bitSet()
		case "proc":
			p.next()
			return p.proc()
		}
		p.next()
		return p.named(tok)
	}
	if tok.kind == tokEOF {
		return nil, p.errorf(tok, "expected type, got end of expression")
	}
	return nil, p.errorf(tok, "expected type, got %q", tok.text)
}

func (p *exprParser) named(tok token) (*types.Type, error) {
	if g, ok := p.generics[tok.text]; ok {
		return g, nil
	}
	if b, ok := p.store.Registry().ByName(tok.text); ok {
		return b, nil
	}
	t, ok := p.resolve(tok.text)
	if !ok {
		return nil, &ExprError{Expr: p.src, Pos: tok.pos, Unresolved: tok.text}
	}
	if p.indirect == 0 {
		p.deps = append(p.deps, tok.text)
	}
	return t, nil
}

// bracketed handles everything after '[': [^]T, []T, [dynamic]T and [N]T.
func (p *exprParser) bracketed() (*types.Type, error) {
	s := p.store
	switch {
	case p.accept("^"):
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.behind()
		if err != nil {
			return nil, err
		}
		return s.MultiPointer(elem), nil

	case p.accept("]"):
		elem, err := p.behind()
		if err != nil {
			return nil, err
		}
		return s.Slice(elem), nil

	case p.accept("dynamic"):
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.behind()
		if err != nil {
			return nil, err
		}
		return s.DynamicArray(elem), nil
	}
	n, err := p.integer()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, p.errorf(p.toks[p.pos-1], "negative array length %d", n)
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	elem, err := p.typ()
	if err != nil {
		return nil, err
	}
	return s.Array(elem, n), nil
}

func (p *exprParser) directive() (*types.Type, error) {
	tok := p.next()
	switch tok.text {
	case "simd":
		if err := p.expect("["); err != nil {
			return nil, err
		}
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, p.errorf(tok, "#simd length must be positive, got %d", n)
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		elem, err := p.typ()
		if err != nil {
			return nil, err
		}
		return p.store.SimdVector(elem, n), nil

	case "row_major", "column_major":
		if err := p.expect("matrix"); err != nil {
			return nil, err
		}
		return p.matrix(tok.text == "row_major")

	case "soa":
		if err := p.expect("^"); err != nil {
			return nil, err
		}
		elem, err := p.behind()
		if err != nil {
			return nil, err
		}
		return p.store.SoaPointer(elem), nil
	}
	return nil, p.errorf(tok, "unknown directive #%s", tok.text)
}

func (p *exprParser) mapType() (*types.Type, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	key, err := p.behind()
	if err != nil {
		return nil, err
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	value, err := p.behind()
	if err != nil {
		return nil, err
	}
	return p.store.Map(key, value), nil
}

func (p *exprParser) matrix(rowMajor bool) (*types.Type, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	rows, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}
	cols, err := p.integer()
	if err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, p.errorf(p.toks[p.pos-1], "matrix dimensions must be positive")
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	elem, err := p.typ()
	if err != nil {
		return nil, err
	}
	return p.store.Matrix(elem, rows, cols, rowMajor), nil
}

// bitSet parses bit_set[lo..=hi], bit_set[lo..<hi] or bit_set[Enum], each
// with an optional "; underlying" integer.
func (p *exprParser) bitSet() (*types.Type, error) {
	s := p.store
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var (
		elem         *types.Type
		lower, upper int64
	)
	if tok := p.peek(); tok.kind == tokIdent {
		p.next()
		e, err := p.named(tok)
		if err != nil {
			return nil, err
		}
		en := types.BaseType(e)
		if en == nil || en.Kind() != types.KindEnum {
			return nil, p.errorf(tok, "bit_set element %s is not an enum", tok.text)
		}
		info := en.Enum()
		if info.MinValue != nil {
			lower, _ = constant.Int64Val(info.MinValue)
			upper, _ = constant.Int64Val(info.MaxValue)
		}
		elem = e
	} else {
		lo, err := p.integer()
		if err != nil {
			return nil, err
		}
		op := p.next()
		if op.text != "..=" && op.text != "..<" {
			return nil, p.errorf(op, "expected range operator")
		}
		hi, err := p.integer()
		if err != nil {
			return nil, err
		}
		if op.text == "..<" {
			hi--
		}
		if hi < lo {
			return nil, p.errorf(op, "empty bit_set range %d..=%d", lo, hi)
		}
		lower, upper = lo, hi
		elem = s.Basic(types.BasicInt)
	}
	var underlying *types.Type
	if p.accept(";") {
		tok := p.peek()
		u, err := p.typ()
		if err != nil {
			return nil, err
		}
		if !types.IsInteger(u) {
			return nil, p.errorf(tok, "bit_set underlying type must be an integer")
		}
		underlying = u
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return s.NewBitSet(elem, underlying, lower, upper), nil
}

// proc parses proc, proc(T, U) and proc(a: T) -> R. Signatures are
// pointer-sized, so nothing inside is contained by value.
func (p *exprParser) proc() (*types.Type, error) {
	p.indirect++
	defer func() { p.indirect-- }()

	var spec types.ProcSpec
	if p.accept("(") {
		for i := 0; !p.accept(")"); i++ {
			if i > 0 {
				if err := p.expect(","); err != nil {
					return nil, err
				}
			}
			name := fmt.Sprintf("_%d", i)
			if tok := p.peek(); tok.kind == tokIdent && p.toks[p.pos+1].text == ":" {
				name = tok.text
				p.pos += 2
			}
			t, err := p.typ()
			if err != nil {
				return nil, err
			}
			spec.Params = append(spec.Params, types.NewParam(name, t, 0))
		}
	}
	if p.accept("->") {
		r, err := p.typ()
		if err != nil {
			return nil, err
		}
		spec.Results = []*types.Entity{types.NewParam("", r, 0)}
	}
	return p.store.NewProc(spec), nil
}
