package suggest

import (
	"github.com/dukex/flowcanvas/pkg/expression"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// DefaultSample is the output shown for nodes whose template declares none.
func DefaultSample() map[string]any {
	return map[string]any{"data": map[string]any{
		"result":    "Sample output",
		"status":    "success",
		"timestamp": "2024-01-01T00:00:00Z",
	}}
}

// SampleOutput returns the declared sample output record of a node.
func SampleOutput(n models.Node, catalog models.TemplateCatalog) any {
	if tmpl := lookup(catalog, n.Type); tmpl != nil && tmpl.Sample != nil && tmpl.Sample.Output != nil {
		return models.CloneValue(tmpl.Sample.Output)
	}

	return DefaultSample()
}

// PreviewContext builds a lenient context where every upstream node has
// produced its sample output. When an upstream sample yields a list, its first
// element is bound to $item.
func PreviewContext(g models.Graph, nodeID string, catalog models.TemplateCatalog) *expression.Context {
	ctx := &expression.Context{
		Outputs:      map[string]any{},
		Predecessors: graph.PredecessorIDs(g, nodeID),
		Lenient:      true,
	}

	for _, n := range graph.TransitiveUpstream(g, nodeID) {
		output := SampleOutput(n, catalog)
		ctx.Outputs[n.ID] = output

		if ctx.InIteration {
			continue
		}

		record, ok := output.(map[string]any)
		if !ok {
			continue
		}

		if items, ok := record["data"].([]any); ok && len(items) > 0 {
			ctx.Item = items[0]
			ctx.InIteration = true
		}
	}

	return ctx
}

// Preview resolves text as it would look with sample upstream data. Missing
// references render as empty; only syntax errors are returned.
func Preview(g models.Graph, nodeID, text string, catalog models.TemplateCatalog) (any, error) {
	return expression.Resolve(text, PreviewContext(g, nodeID, catalog))
}
