package expression

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

// TimeLayout is the format $now renders with.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Context is everything a placeholder may read while a node is evaluated.
type Context struct {
	// Outputs maps node ids to their output record ({data, metadata}).
	Outputs map[string]any
	// Predecessors lists the direct predecessors of the evaluated node in
	// connection order. $prev reads the first one.
	Predecessors []string
	// Item is the current loop item, valid only when InIteration is set.
	Item        any
	InIteration bool
	// Input is the payload the execution was started with.
	Input any
	// Now defaults to time.Now.
	Now func() time.Time
	// Lenient turns missing references and scope violations into Undefined.
	// Design-time previews use it; execution does not.
	Lenient bool
}

// NewContext builds the context for evaluating nodeID inside g with the given
// recorded run results.
func NewContext(g models.Graph, nodeID string, runData map[string]models.NodeRunResult) *Context {
	outputs := make(map[string]any, len(runData))
	for id, result := range runData {
		outputs[id] = result.Record()
	}

	return &Context{
		Outputs:      outputs,
		Predecessors: graph.PredecessorIDs(g, nodeID),
	}
}

// WithItem returns a copy of ctx scoped to one loop item.
func (c *Context) WithItem(item any) *Context {
	clone := *c
	clone.Item = item
	clone.InIteration = true

	return &clone
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}

	return time.Now()
}

// Resolve substitutes every placeholder in text. When text is exactly one
// placeholder the raw value is returned so arrays, objects and numbers
// survive; otherwise the result is a string where non-string values appear as
// canonical JSON and Undefined as nothing.
func Resolve(text string, ctx *Context) (any, error) {
	t, err := Parse(text)
	if err != nil {
		return nil, err
	}

	return t.Resolve(ctx)
}

// Resolve evaluates a parsed template.
func (t Template) Resolve(ctx *Context) (any, error) {
	if ctx == nil {
		ctx = &Context{}
	}

	if p, ok := t.Single(); ok {
		return p.Eval(ctx)
	}

	var b strings.Builder

	for _, s := range t.Segments {
		if s.Placeholder == nil {
			b.WriteString(s.Literal)

			continue
		}

		v, err := s.Placeholder.Eval(ctx)
		if err != nil {
			return nil, err
		}

		b.WriteString(Stringify(v))
	}

	return b.String(), nil
}

// ResolveString is Resolve with the result always rendered as a string.
func ResolveString(text string, ctx *Context) (string, error) {
	v, err := Resolve(text, ctx)
	if err != nil {
		return "", err
	}

	return Stringify(v), nil
}

// ResolveValue walks a JSON-like value and resolves every string in it.
func ResolveValue(v any, ctx *Context) (any, error) {
	switch val := v.(type) {
	case string:
		if !ContainsExpression(val) {
			return val, nil
		}

		return Resolve(val, ctx)
	case map[string]any:
		out := make(map[string]any, len(val))

		for k, item := range val {
			resolved, err := ResolveValue(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}

			out[k] = resolved
		}

		return out, nil
	case []any:
		out := make([]any, len(val))

		for i, item := range val {
			resolved, err := ResolveValue(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			out[i] = resolved
		}

		return out, nil
	default:
		return v, nil
	}
}

// ResolveConfig resolves every value of a node configuration.
func ResolveConfig(config map[string]any, ctx *Context) (map[string]any, error) {
	out, err := ResolveValue(config, ctx)
	if err != nil {
		return nil, err
	}

	resolved, _ := out.(map[string]any)

	return resolved, nil
}

// Eval computes the value of a single placeholder.
func (p *Placeholder) Eval(ctx *Context) (any, error) {
	switch p.Kind {
	case KindNow:
		return ctx.now().UTC().Format(TimeLayout), nil
	case KindTimestamp:
		return ctx.now().UnixMilli(), nil
	case KindUUID:
		return uuid.NewString(), nil
	case KindRandom:
		lo, hi := p.Min, p.Max
		if lo > hi {
			lo, hi = hi, lo
		}

		return randomBetween(lo, hi), nil
	case KindPrev:
		if len(ctx.Predecessors) == 0 {
			return ctx.missing(&MissingReferenceError{Expr: p.Expr})
		}

		return ctx.node(p, ctx.Predecessors[0])
	case KindNode:
		return ctx.node(p, p.NodeID)
	case KindItem:
		if !ctx.InIteration {
			return ctx.missing(&ScopeError{Expr: p.Expr, Variable: "$item"})
		}

		return Lookup(ctx.Item, p.Path), nil
	case KindInput:
		return Lookup(ctx.Input, p.Path), nil
	default:
		return nil, &SyntaxError{Expr: p.Expr, Offset: p.Offset, Msg: "unknown variable"}
	}
}

func (c *Context) node(p *Placeholder, id string) (any, error) {
	output, ok := c.Outputs[id]
	if !ok {
		return c.missing(&MissingReferenceError{Expr: p.Expr, NodeID: id})
	}

	return Lookup(output, p.Path), nil
}

func (c *Context) missing(err error) (any, error) {
	if c.Lenient {
		return Undefined, nil
	}

	return nil, err
}

// Stringify renders a resolved value for interpolation into text.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case undefined:
		return ""
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// randomBetween returns a value in [lo, hi]. The span is computed unsigned so
// ranges wider than math.MaxInt64 do not overflow.
func randomBetween(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo) + 1
	if span == 0 {
		return int64(rand.Uint64()) //nolint:gosec // not security sensitive
	}

	return lo + int64(rand.Uint64N(span)) //nolint:gosec // not security sensitive
}
