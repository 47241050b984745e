// Package expression parses and resolves the {{...}} placeholders that node
// configurations use to reference built-in variables, loop items, the
// workflow input and the outputs of upstream nodes.
package expression

import (
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Kind identifies the variable a placeholder reads.
type Kind int

const (
	KindNow Kind = iota
	KindTimestamp
	KindUUID
	KindRandom
	KindPrev
	KindNode
	KindItem
	KindInput
)

var kindNames = map[Kind]string{
	KindNow:       "$now",
	KindTimestamp: "$timestamp",
	KindUUID:      "$uuid",
	KindRandom:    "$random",
	KindPrev:      "$prev",
	KindNode:      "$node",
	KindItem:      "$item",
	KindInput:     "$input",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Placeholder is a parsed {{...}} body.
type Placeholder struct {
	Expr   string // trimmed body
	Offset int
	Kind   Kind
	NodeID string // KindNode only
	Path   Path
	Min    int64 // KindRandom only
	Max    int64
}

// Segment is either literal text or a placeholder.
type Segment struct {
	Literal     string
	Placeholder *Placeholder
}

// Template is a parsed configuration string.
type Template struct {
	Segments []Segment
}

// Single returns the placeholder when the template consists of exactly one
// placeholder with no surrounding text.
func (t Template) Single() (*Placeholder, bool) {
	if len(t.Segments) == 1 && t.Segments[0].Placeholder != nil {
		return t.Segments[0].Placeholder, true
	}

	return nil, false
}

// Placeholders returns every placeholder in order of appearance.
func (t Template) Placeholders() []*Placeholder {
	var out []*Placeholder

	for _, s := range t.Segments {
		if s.Placeholder != nil {
			out = append(out, s.Placeholder)
		}
	}

	return out
}

// ContainsExpression reports whether s carries expression markers.
func ContainsExpression(s string) bool {
	return strings.Contains(s, openDelim) && strings.Contains(s, closeDelim)
}

// Parse splits text into literal and placeholder segments. A "{{" without a
// matching "}}" is kept as literal text.
func Parse(text string) (Template, error) {
	var (
		t      Template
		offset int
	)

	rest := text

	for rest != "" {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest})

			break
		}

		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest})

			break
		}

		if start > 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest[:start]})
		}

		body := rest[start+len(openDelim) : start+len(openDelim)+end]

		p, err := parsePlaceholder(strings.TrimSpace(body), offset+start)
		if err != nil {
			return Template{}, err
		}

		t.Segments = append(t.Segments, Segment{Placeholder: p})

		consumed := start + len(openDelim) + end + len(closeDelim)
		offset += consumed
		rest = rest[consumed:]
	}

	return t, nil
}

func parsePlaceholder(expr string, offset int) (*Placeholder, error) {
	p := &Placeholder{Expr: expr, Offset: offset}
	fail := func(msg string) (*Placeholder, error) {
		return nil, &SyntaxError{Expr: expr, Offset: offset, Msg: msg}
	}

	switch {
	case expr == "$now":
		p.Kind = KindNow
	case expr == "$timestamp":
		p.Kind = KindTimestamp
	case expr == "$uuid":
		p.Kind = KindUUID
	case strings.HasPrefix(expr, "$random"):
		lo, hi, ok := parseRandomArgs(strings.TrimPrefix(expr, "$random"))
		if !ok {
			return fail("expected $random(min,max) with integer bounds")
		}

		p.Kind = KindRandom
		p.Min, p.Max = lo, hi
	case expr == "$node" || strings.HasPrefix(expr, "$node."):
		rest := strings.TrimPrefix(expr, "$node.")
		if expr == "$node" || rest == "" {
			return fail("expected $node.<id>")
		}

		cut := strings.IndexAny(rest, ".[")
		if cut < 0 {
			cut = len(rest)
		}

		if cut == 0 {
			return fail("expected a node id after $node.")
		}

		path, err := ParsePath(rest[cut:])
		if err != nil {
			return fail(err.Error())
		}

		p.Kind = KindNode
		p.NodeID = rest[:cut]
		p.Path = path
	default:
		kind, rest, ok := rootVariable(expr)
		if !ok {
			return fail("unknown variable")
		}

		path, err := ParsePath(rest)
		if err != nil {
			return fail(err.Error())
		}

		p.Kind = kind
		p.Path = path
	}

	return p, nil
}

func rootVariable(expr string) (Kind, string, bool) {
	for _, kind := range []Kind{KindPrev, KindItem, KindInput} {
		name := kind.String()
		if !strings.HasPrefix(expr, name) {
			continue
		}

		rest := expr[len(name):]
		if rest == "" || rest[0] == '.' || rest[0] == '[' {
			return kind, rest, true
		}
	}

	return 0, "", false
}

func parseRandomArgs(s string) (int64, int64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return 0, 0, false
	}

	args := strings.Split(s[1:len(s)-1], ",")
	if len(args) != 2 {
		return 0, 0, false
	}

	lo, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, 0, false
	}

	hi, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return lo, hi, true
}
