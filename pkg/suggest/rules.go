package suggest

import (
	"slices"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

// ContextRule offers extra variables when a specific property of a specific
// kind of node is being edited. Upstream maps an upstream node type to the
// variables it contributes; "{id}" in a value is replaced with its node id.
type ContextRule struct {
	Category         string
	Properties       []string
	NodeType         string
	NodeTypeContains string
	Upstream         map[string][]Variable
}

// Matches reports whether the rule applies to property on a node of nodeType.
func (r ContextRule) Matches(property, nodeType string) bool {
	if !slices.Contains(r.Properties, property) {
		return false
	}

	if r.NodeType != "" && r.NodeType != nodeType {
		return false
	}

	if r.NodeTypeContains != "" && !strings.Contains(nodeType, r.NodeTypeContains) {
		return false
	}

	return true
}

// Variables expands the rule for the given upstream nodes.
func (r ContextRule) Variables(upstream []models.Node) []Variable {
	var out []Variable

	for _, n := range upstream {
		for _, v := range r.Upstream[n.Type] {
			v.Value = strings.ReplaceAll(v.Value, "{id}", n.ID)
			out = append(out, v)
		}
	}

	return out
}

// ContextRules are evaluated in order after the generic groups.
var ContextRules = []ContextRule{
	{
		Category:         "AI Context Suggestions",
		Properties:       []string{"prompt"},
		NodeTypeContains: "ai",
		Upstream: map[string][]Variable{
			"uploadFile": {{
				Label: "Analyze uploaded data", Value: "Analyze this data: {{$node.{id}.data}}",
				Description: "Use file content as AI context",
			}},
			"httpRequest": {{
				Label: "Process API response", Value: "Process: {{$node.{id}.data}}",
				Description: "Use API data as AI input",
			}},
		},
	},
	{
		Category:   "Email Suggestions",
		Properties: []string{"toEmail", "body"},
		NodeType:   "email",
		Upstream: map[string][]Variable{
			"uploadFile": {
				{Label: "Recipient email", Value: "{{$item.email}}", Description: "Email from uploaded file"},
				{Label: "Recipient name", Value: "{{$item.name}}", Description: "Name from uploaded file"},
			},
			"aiChat": {{
				Label: "AI-generated content", Value: "{{$node.{id}.data.response}}",
				Description: "Use AI output as email body",
			}},
		},
	},
}
