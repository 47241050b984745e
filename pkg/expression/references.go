package expression

import (
	"errors"
	"strings"
)

// Reference is a node read by an expression.
type Reference struct {
	Expr   string
	Kind   Kind // KindNode or KindPrev
	NodeID string
}

// References lists the node references in text. Malformed placeholders are
// skipped so callers can inspect half-written configs.
func References(text string) []Reference {
	var refs []Reference

	for _, body := range bodies(text) {
		p, err := parsePlaceholder(body, 0)
		if err != nil {
			continue
		}

		switch p.Kind {
		case KindNode:
			refs = append(refs, Reference{Expr: p.Expr, Kind: KindNode, NodeID: p.NodeID})
		case KindPrev:
			refs = append(refs, Reference{Expr: p.Expr, Kind: KindPrev})
		}
	}

	return refs
}

// ValueReferences collects References from every string in a JSON-like value.
func ValueReferences(v any) []Reference {
	switch val := v.(type) {
	case string:
		return References(val)
	case map[string]any:
		var refs []Reference
		for _, item := range val {
			refs = append(refs, ValueReferences(item)...)
		}

		return refs
	case []any:
		var refs []Reference
		for _, item := range val {
			refs = append(refs, ValueReferences(item)...)
		}

		return refs
	default:
		return nil
	}
}

func bodies(text string) []string {
	var out []string

	rest := text
	for {
		t, err := Parse(rest)
		if err == nil {
			for _, p := range t.Placeholders() {
				out = append(out, p.Expr)
			}

			return out
		}

		// skip past the malformed placeholder and keep scanning
		var se *SyntaxError
		if !errors.As(err, &se) {
			return out
		}

		head, tail := rest[:se.Offset], rest[se.Offset:]
		if parsed, err := Parse(head); err == nil {
			for _, p := range parsed.Placeholders() {
				out = append(out, p.Expr)
			}
		}

		end := strings.Index(tail[len(openDelim):], closeDelim)
		if end < 0 {
			return out
		}

		rest = tail[len(openDelim)+end+len(closeDelim):]
	}
}
