// Package suggest enumerates the expression variables available to a node
// property and previews expressions against sample upstream outputs.
package suggest

import (
	"fmt"
	"strings"

	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

const (
	CategoryBuiltins = "Built-in Variables"
	CategoryPrevious = "Previous Node Output"
)

// Variable is one insertable expression.
type Variable struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"desc"`
}

// Group is a titled list of variables.
type Group struct {
	Category  string     `json:"category"`
	Variables []Variable `json:"variables"`
}

// Builtins are always offered.
var Builtins = []Variable{
	{Label: "Current timestamp", Value: "{{$now}}", Description: "ISO date string"},
	{Label: "Unix timestamp", Value: "{{$timestamp}}", Description: "Milliseconds since epoch"},
	{Label: "Random UUID", Value: "{{$uuid}}", Description: "Generate unique ID"},
	{Label: "Random number", Value: "{{$random(1,100)}}", Description: "Random between 1-100"},
}

// SupportsExpressions reports whether a property is edited as free text and
// therefore accepts inserted expressions.
func SupportsExpressions(p models.PropertyDescriptor) bool {
	switch p.Type {
	case models.PropertyTypeString, models.PropertyTypeText, models.PropertyTypeCode:
		return true
	default:
		return false
	}
}

// Suggest lists the variable groups for property of node nodeID: built-ins,
// the direct predecessors under $prev, one group per upstream node under
// $node.<id>, then any context rule matching the property and node type.
// It never fails; unknown nodes or types yield fewer groups.
func Suggest(g models.Graph, nodeID, property string, catalog models.TemplateCatalog) []Group {
	groups := []Group{{Category: CategoryBuiltins, Variables: append([]Variable(nil), Builtins...)}}

	target, ok := g.Node(nodeID)
	if !ok {
		return groups
	}

	if preds := graph.DirectPredecessors(g, nodeID); len(preds) > 0 {
		var vars []Variable
		for _, p := range preds {
			vars = append(vars, NodeVariables(p, "$prev", catalog)...)
		}

		groups = append(groups, Group{Category: CategoryPrevious, Variables: vars})
	}

	upstream := graph.TransitiveUpstream(g, nodeID)
	groups = append(groups, upstreamGroups(upstream, catalog)...)

	for _, rule := range ContextRules {
		if !rule.Matches(property, target.Type) {
			continue
		}

		if vars := rule.Variables(upstream); len(vars) > 0 {
			groups = append(groups, Group{Category: rule.Category, Variables: vars})
		}
	}

	return groups
}

// upstreamGroups emits one group per node, grouped by type in order of first
// appearance. Nodes sharing a type get a "(n)" suffix.
func upstreamGroups(nodes []models.Node, catalog models.TemplateCatalog) []Group {
	var (
		types  []string
		byType = map[string][]models.Node{}
	)

	for _, n := range nodes {
		if _, seen := byType[n.Type]; !seen {
			types = append(types, n.Type)
		}

		byType[n.Type] = append(byType[n.Type], n)
	}

	var groups []Group

	for _, t := range types {
		same := byType[t]

		for i, n := range same {
			label := nodeLabel(n, catalog)
			if len(same) > 1 {
				label = fmt.Sprintf("%s (%d)", label, i+1)
			}

			groups = append(groups, Group{
				Category:  label,
				Variables: NodeVariables(n, "$node."+n.ID, catalog),
			})
		}
	}

	return groups
}

func nodeLabel(n models.Node, catalog models.TemplateCatalog) string {
	if n.Data.Label != "" {
		return n.Data.Label
	}

	if tmpl := lookup(catalog, n.Type); tmpl != nil {
		return tmpl.Name
	}

	return n.Type
}

func lookup(catalog models.TemplateCatalog, nodeType string) *models.NodeTemplate {
	if catalog == nil {
		return nil
	}

	tmpl, _ := catalog.Template(nodeType)

	return tmpl
}

// NodeVariables lists the variables of one node under prefix ("$prev" or
// "$node.<id>"): the full output followed by the template's sample fields.
func NodeVariables(n models.Node, prefix string, catalog models.TemplateCatalog) []Variable {
	vars := []Variable{{
		Label:       "Full output",
		Value:       fmt.Sprintf("{{%s.data}}", prefix),
		Description: "Complete node output",
	}}

	tmpl := lookup(catalog, n.Type)
	if tmpl == nil || tmpl.Sample == nil {
		return vars
	}

	for _, f := range tmpl.Sample.Fields {
		vars = append(vars, Variable{Label: f.Label, Value: wrap(prefix, f.Path), Description: f.Description})
	}

	for _, f := range tmpl.Sample.LoopFields {
		vars = append(vars, Variable{Label: f.Label, Value: wrap("$item", f.Path), Description: f.Description})
	}

	return vars
}

func wrap(prefix, path string) string {
	if path == "" {
		return "{{" + prefix + "}}"
	}

	if strings.HasPrefix(path, "[") {
		return "{{" + prefix + path + "}}"
	}

	return "{{" + prefix + "." + path + "}}"
}
