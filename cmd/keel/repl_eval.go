package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"keel/internal/driver"
	"keel/internal/types"
)

const replHelp = `commands:
  size <type>               size in bytes
  align <type>              alignment in bytes
  layout <type>             size, alignment, member offsets and union tag
  offsets <type>            member offsets of a record or tuple
  type <type>               canonical spelling, and the base of a named type
  lookup <type> <field>     resolve a field, through using members too
  identical <a> vs <b>      type identity
  subtype <a> vs <b>        using-subtype level of a in b
  decls                     declared types
  help                      this text
  quit                      leave`

var replCommands = []string{"size", "align", "layout", "offsets", "type", "lookup", "identical", "subtype", "decls", "help", "quit"}

// replSession answers queries against one laid-out unit.
type replSession struct {
	res *driver.Result
}

// errQuit ends the session.
var errQuit = errors.New("quit")

func (r *replSession) eval(line string) (out string, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	defer func() {
		// engine misuse panics; in a REPL it is just a bad query
		if p := recover(); p != nil {
			out, err = "", fmt.Errorf("%v", p)
		}
	}()

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "quit", "exit":
		return "", errQuit
	case "help", "?":
		return replHelp, nil
	case "decls":
		return r.decls(), nil
	case "size", "align", "layout", "offsets", "type":
		t, err := r.parse(rest)
		if err != nil {
			return "", err
		}
		return r.describe(cmd, t)
	case "lookup":
		i := strings.LastIndexByte(rest, ' ')
		if i < 0 {
			return "", fmt.Errorf("usage: lookup <type> <field>")
		}
		t, err := r.parse(rest[:i])
		if err != nil {
			return "", err
		}
		return r.lookup(t, strings.TrimSpace(rest[i+1:]))
	case "identical", "subtype":
		a, b, ok := strings.Cut(rest, " vs ")
		if !ok {
			return "", fmt.Errorf("usage: %s <a> vs <b>", cmd)
		}
		x, err := r.parse(a)
		if err != nil {
			return "", err
		}
		y, err := r.parse(b)
		if err != nil {
			return "", err
		}
		if cmd == "identical" {
			return strconv.FormatBool(r.res.Engine.Identical(x, y)), nil
		}
		level := r.res.Engine.Comparer().SubtypeLevel(x, y, false)
		if level <= 0 {
			return "false", nil
		}
		return fmt.Sprintf("true (level %d)", level), nil
	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (r *replSession) parse(expr string) (*types.Type, error) {
	if expr == "" {
		return nil, fmt.Errorf("missing type")
	}
	return r.res.Unit.ParseType(expr)
}

func (r *replSession) describe(cmd string, t *types.Type) (string, error) {
	eng := r.res.Engine
	if cmd == "type" {
		s := types.TypeString(t)
		if n := t.Named(); n != nil && n.Base() != nil {
			s += " = " + types.TypeString(n.Base())
		}
		return s, nil
	}
	l, err := eng.LayoutOf(t)
	if err != nil {
		return "", err
	}
	switch cmd {
	case "size":
		return strconv.FormatInt(l.Size, 10), nil
	case "align":
		return strconv.FormatInt(l.Align, 10), nil
	}

	var b strings.Builder
	if cmd == "layout" {
		fmt.Fprintf(&b, "size %d, align %d", l.Size, l.Align)
		if l.TagSize > 0 {
			fmt.Fprintf(&b, ", tag %d bytes at %d", l.TagSize, l.TagOffset)
		}
	}
	names := memberNames(t)
	for i, off := range l.FieldOffsets {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		name := strconv.Itoa(i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		fmt.Fprintf(&b, "  %-12s @%d", name, off)
	}
	if b.Len() == 0 {
		return "no members", nil
	}
	return b.String(), nil
}

func memberNames(t *types.Type) []string {
	b := types.BaseType(t)
	var members []*types.Entity
	switch b.Kind() {
	case types.KindStruct:
		members = b.Struct().Fields()
	case types.KindTuple:
		members = b.Tuple().Vars
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

func (r *replSession) lookup(t *types.Type, field string) (string, error) {
	sel := r.res.Unit.Store.LookupField(t, field, false)
	if !sel.Found() {
		return "", fmt.Errorf("%s has no field %s", types.TypeString(t), field)
	}
	path := make([]string, len(sel.Index))
	for i, idx := range sel.Index {
		path[i] = strconv.Itoa(int(idx))
	}
	s := fmt.Sprintf("%s: %s, path [%s]", sel.Entity.Name, types.TypeString(sel.Entity.Type), strings.Join(path, " "))
	if sel.Indirect {
		return s + ", through a pointer", nil
	}
	return fmt.Sprintf("%s, offset %d", s, r.res.Engine.OffsetOfSelection(t, sel)), nil
}

func (r *replSession) decls() string {
	names := make([]string, 0, len(r.res.Unit.Decls))
	for _, d := range r.res.Unit.Decls {
		n := fmt.Sprintf("%s (%s)", d.Name, d.Kind)
		if d.Broken {
			n += " broken"
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

// complete offers command names, then declared type names.
func (r *replSession) complete(line string) []string {
	cmd, rest, hasArg := strings.Cut(line, " ")
	var out []string
	if !hasArg {
		for _, c := range replCommands {
			if strings.HasPrefix(c, cmd) {
				out = append(out, c)
			}
		}
		return out
	}
	i := strings.LastIndexAny(rest, " ^[]")
	prefix, word := line[:len(cmd)+1+i+1], rest[i+1:]
	for _, d := range r.res.Unit.Decls {
		if strings.HasPrefix(d.Name, word) {
			out = append(out, prefix+d.Name)
		}
	}
	return out
}
