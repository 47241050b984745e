package gallery

import (
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
)

var knownCategories = map[string]struct{ name, icon string }{
	"automation":    {"Automation", "⚙️"},
	"communication": {"Communication", "📧"},
	"data":          {"Data Processing", "📊"},
	"ai":            {"AI & ML", "🤖"},
	"integration":   {"Integrations", "🔗"},
}

func describeCategory(id string) (string, string) {
	if c, ok := knownCategories[id]; ok {
		return c.name, c.icon
	}

	if id == "" {
		return "Other", "📁"
	}

	return strings.ToUpper(id[:1]) + id[1:], "📁"
}

func node(id, nodeType, label string, x float64, config map[string]any) models.Node {
	return models.Node{
		ID:       id,
		Type:     nodeType,
		Position: models.Position{X: x, Y: 200},
		Data:     models.NodeData{Label: label, Config: config},
	}
}

func chain(nodes ...models.Node) models.Graph {
	g := models.Graph{Nodes: nodes, Connections: []models.Connection{}}

	for i := 1; i < len(nodes); i++ {
		g.Connections = append(g.Connections, models.Connection{
			ID:     nodes[i-1].ID + "-" + nodes[i].ID,
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return g
}

// DefaultTemplates returns the built-in workflow templates. They only use
// node types of the built-in node catalog.
func DefaultTemplates() []*models.WorkflowTemplate {
	return []*models.WorkflowTemplate{
		{
			ID: "webhook-email-alert", Name: "Webhook Email Alert", Icon: "📧", Category: "communication",
			Description: "Send an email whenever a webhook receives a payload",
			Difficulty:  models.DifficultyBeginner, Tags: []string{"webhook", "email", "notification"},
			EstimatedTime: "5 min", Popularity: 92,
			Graph: chain(
				node("hook", "webhook", "Incoming webhook", 100, map[string]any{"path": "/hooks/alert", "method": "POST"}),
				node("mail", "email", "Notify team", 400, map[string]any{
					"toEmail": "team@example.com",
					"subject": "New event",
					"body":    "Received: {{$prev.data.body}}",
				}),
			),
		},
		{
			ID: "api-cleanup", Name: "API Data Cleanup", Icon: "🧹", Category: "data",
			Description: "Fetch records from an API, keep the active ones and sort them",
			Difficulty:  models.DifficultyIntermediate, Tags: []string{"http", "filter", "sort"},
			EstimatedTime: "10 min", Popularity: 78,
			Graph: chain(
				node("fetch", "httpRequest", "Fetch users", 100, map[string]any{"url": "https://api.example.com/users", "method": "GET"}),
				node("active", "filter", "Active only", 400, map[string]any{
					"conditions": []any{map[string]any{"field": "status", "operator": "equals", "value": "active"}},
				}),
				node("order", "sort", "By name", 700, map[string]any{"field": "name", "order": "asc"}),
			),
		},
		{
			ID: "ai-support-reply", Name: "AI Support Reply", Icon: "🤖", Category: "ai",
			Description: "Draft an answer to a support request with a language model and mail it back",
			Difficulty:  models.DifficultyAdvanced, Tags: []string{"ai", "support", "email"},
			EstimatedTime: "15 min", Popularity: 85,
			Graph: chain(
				node("request", "webhook", "Support request", 100, map[string]any{"path": "/hooks/support", "method": "POST"}),
				node("draft", "aiChat", "Draft reply", 400, map[string]any{
					"model":  "gpt-4o-mini",
					"prompt": "Answer politely: {{$prev.data.body.message}}",
				}),
				node("reply", "email", "Send reply", 700, map[string]any{
					"toEmail": "{{$node.request.data.body.email}}",
					"subject": "Re: your request",
					"body":    "{{$prev.data.response}}",
				}),
			),
		},
		{
			ID: "file-import", Name: "File Import", Icon: "📄", Category: "automation",
			Description: "Transform an uploaded file with code and store the rows",
			Difficulty:  models.DifficultyIntermediate, Tags: []string{"file", "code", "database"},
			EstimatedTime: "10 min", Popularity: 64,
			Graph: chain(
				node("upload", "uploadFile", "Upload", 100, nil),
				node("transform", "code", "Transform rows", 400, map[string]any{"code": "return items.map(i => i.json);"}),
				node("store", "database", "Store rows", 700, map[string]any{"query": "INSERT INTO rows (data) VALUES ($1)"}),
			),
		},
	}
}

// RegisterDefaultTemplates registers all built-in workflow templates.
func (g *Gallery) RegisterDefaultTemplates() error {
	for _, t := range DefaultTemplates() {
		if err := g.Register(t); err != nil {
			return err
		}
	}

	return nil
}
