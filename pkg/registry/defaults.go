package registry

import "github.com/dukex/flowcanvas/pkg/models"

func float(v float64) *float64 { return &v }

func fields(pairs ...string) []models.SampleField {
	out := make([]models.SampleField, 0, len(pairs)/3)
	for i := 0; i+2 < len(pairs); i += 3 {
		out = append(out, models.SampleField{Label: pairs[i], Path: pairs[i+1], Description: pairs[i+2]})
	}

	return out
}

var sampleTimestamp = "2024-01-01T00:00:00Z"

// DefaultTemplates returns the built-in node templates.
func DefaultTemplates() []*models.NodeTemplate {
	return []*models.NodeTemplate{
		{
			ID: "webhook", Name: "Webhook", Icon: "🪝", Color: "#8B5CF6", Category: "Triggers",
			Description: "Start the workflow from an incoming HTTP call",
			Inputs:      0, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "path", Label: "Path", Type: models.PropertyTypeString, Required: true, Placeholder: "/hooks/my-flow"},
				{Name: "method", Label: "Method", Type: models.PropertyTypeSelect, Default: "POST", Options: []string{"GET", "POST", "PUT"}},
			},
			Sample: &models.SampleShape{
				Fields: fields("Request body", "data.body", "Payload sent to the webhook",
					"Request headers", "data.headers", "Incoming headers"),
				Output: map[string]any{"data": map[string]any{
					"body":    map[string]any{"event": "created"},
					"headers": map[string]any{"content-type": "application/json"},
				}},
			},
		},
		{
			ID: "httpRequest", Name: "HTTP Request", Icon: "🌐", Color: "#3B82F6", Category: "Integrations",
			Description: "Call an HTTP API",
			Inputs:      1, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "url", Label: "URL", Type: models.PropertyTypeString, Required: true, Placeholder: "https://api.example.com/users"},
				{Name: "method", Label: "Method", Type: models.PropertyTypeSelect, Default: "GET", Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
				{Name: "headers", Label: "Headers", Type: models.PropertyTypeKeyValue},
				{Name: "body", Label: "Body", Type: models.PropertyTypeJSON},
				{Name: "timeout", Label: "Timeout (s)", Type: models.PropertyTypeNumber, Default: float64(30), Min: float(1), Max: float(300), Step: float(1)},
			},
			Sample: &models.SampleShape{
				Fields: fields("Response body", "data", "API response data",
					"Specific field", "data.fieldName", "Access specific field",
					"Status code", "metadata.statusCode", "HTTP status"),
				Output: map[string]any{
					"data": map[string]any{
						"id": float64(123), "name": "John Doe", "email": "john@example.com",
						"status": "active", "created_at": sampleTimestamp,
					},
					"metadata": map[string]any{
						"statusCode": float64(200),
						"headers":    map[string]any{"content-type": "application/json"},
					},
				},
			},
		},
		aiTemplate("aiChat", "AI Chat", "Chat with a language model"),
		aiTemplate("aiTextGeneration", "AI Text Generation", "Generate text from a prompt"),
		{
			ID: "uploadFile", Name: "Upload File", Icon: "📄", Color: "#F59E0B", Category: "Data",
			Description: "Parse an uploaded CSV or JSON file",
			Inputs:      0, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "file", Label: "File", Type: models.PropertyTypeFile, Required: true},
				{Name: "format", Label: "Format", Type: models.PropertyTypeSelect, Default: "csv", Options: []string{"csv", "json"}},
				{Name: "hasHeader", Label: "First row is header", Type: models.PropertyTypeBoolean, Default: true},
			},
			Sample: &models.SampleShape{
				Fields: fields("File data", "data", "Parsed file content",
					"First row", "data[0]", "First data row"),
				LoopFields: fields("Loop item", "fieldName", "When processing array items"),
				Output: map[string]any{
					"data": []any{
						map[string]any{"id": float64(1), "name": "Alice Smith", "email": "alice@example.com", "age": float64(25)},
						map[string]any{"id": float64(2), "name": "Bob Johnson", "email": "bob@example.com", "age": float64(30)},
						map[string]any{"id": float64(3), "name": "Charlie Brown", "email": "charlie@example.com", "age": float64(35)},
					},
					"metadata": map[string]any{
						"type": "csv", "rowCount": float64(3),
						"columns": []any{"id", "name", "email", "age"},
					},
				},
			},
		},
		{
			ID: "email", Name: "Send Email", Icon: "📧", Color: "#EF4444", Category: "Communication",
			Description: "Send an email through SMTP",
			Inputs:      1, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "toEmail", Label: "To", Type: models.PropertyTypeString, Required: true, Placeholder: "user@example.com"},
				{Name: "fromEmail", Label: "From", Type: models.PropertyTypeString},
				{Name: "subject", Label: "Subject", Type: models.PropertyTypeString, Required: true},
				{Name: "body", Label: "Body", Type: models.PropertyTypeText, Required: true},
				{Name: "html", Label: "Send as HTML", Type: models.PropertyTypeBoolean, Default: false},
			},
		},
		codeTemplate("code", "Code", "Run a JavaScript snippet"),
		codeTemplate("function", "Function", "Transform items with a function"),
		{
			ID: "filter", Name: "Filter", Icon: "🔍", Color: "#14B8A6", Category: "Data",
			Description: "Keep items matching every condition",
			Inputs:      1, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "conditions", Label: "Conditions", Type: models.PropertyTypeConditions, Required: true},
			},
			Sample: listSample(),
		},
		{
			ID: "sort", Name: "Sort", Icon: "↕️", Color: "#14B8A6", Category: "Data",
			Description: "Sort items by a field",
			Inputs:      1, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "field", Label: "Field", Type: models.PropertyTypeString, Required: true},
				{Name: "order", Label: "Order", Type: models.PropertyTypeSelect, Default: "asc", Options: []string{"asc", "desc"}},
			},
			Sample: listSample(),
		},
		{
			ID: "database", Name: "Database Query", Icon: "🗄️", Color: "#6366F1", Category: "Data",
			Description: "Run a SQL query",
			Inputs:      1, Outputs: 1,
			Properties: []models.PropertyDescriptor{
				{Name: "query", Label: "Query", Type: models.PropertyTypeCode, Required: true},
				{Name: "parameters", Label: "Parameters", Type: models.PropertyTypeArray},
			},
			Sample: &models.SampleShape{
				Fields: fields("Rows", "data", "Query result rows", "First row", "data[0]", "First result row"),
				Output: map[string]any{"data": []any{
					map[string]any{"id": float64(1), "user_id": float64(101), "amount": 150.50, "status": "completed"},
					map[string]any{"id": float64(2), "user_id": float64(102), "amount": 75.25, "status": "pending"},
				}},
			},
		},
	}
}

func aiTemplate(id, name, description string) *models.NodeTemplate {
	return &models.NodeTemplate{
		ID: id, Name: name, Icon: "🤖", Color: "#10B981", Category: "AI",
		Description: description,
		Inputs:      1, Outputs: 1,
		Properties: []models.PropertyDescriptor{
			{Name: "model", Label: "Model", Type: models.PropertyTypeSelect, Default: "gpt-4", Options: []string{"gpt-4", "gpt-4o-mini", "gpt-3.5-turbo"}},
			{Name: "prompt", Label: "Prompt", Type: models.PropertyTypeText, Required: true},
			{Name: "temperature", Label: "Temperature", Type: models.PropertyTypeNumber, Default: 0.7, Min: float(0), Max: float(2), Step: float(0.1)},
			{Name: "maxTokens", Label: "Max tokens", Type: models.PropertyTypeNumber, Default: float64(1000), Min: float(1)},
		},
		Sample: &models.SampleShape{
			Fields: fields("AI Response", "data.response", "Generated text",
				"Model used", "data.model", "AI model name"),
			Output: map[string]any{"data": map[string]any{
				"response": "This is a sample AI-generated response that demonstrates the output structure.",
				"model":    "gpt-4",
				"usage": map[string]any{
					"prompt_tokens": float64(25), "completion_tokens": float64(50), "total_tokens": float64(75),
				},
			}},
		},
	}
}

func codeTemplate(id, name, description string) *models.NodeTemplate {
	return &models.NodeTemplate{
		ID: id, Name: name, Icon: "💻", Color: "#64748B", Category: "Logic",
		Description: description,
		Inputs:      1, Outputs: 1,
		Properties: []models.PropertyDescriptor{
			{Name: "code", Label: "Code", Type: models.PropertyTypeCode, Required: true, Default: "return items;"},
		},
		Sample: &models.SampleShape{
			Fields: fields("Code output", "data", "Function result"),
			Output: map[string]any{"data": map[string]any{
				"result": "Sample output", "status": "success", "timestamp": sampleTimestamp,
			}},
		},
	}
}

func listSample() *models.SampleShape {
	return &models.SampleShape{
		Fields: fields("Filtered items", "data", "Processed array", "First item", "data[0]", "First result"),
		Output: map[string]any{"data": []any{
			map[string]any{"id": float64(1), "name": "Alice Smith"},
			map[string]any{"id": float64(2), "name": "Bob Johnson"},
		}},
	}
}

// RegisterDefaultTemplates registers all built-in node templates.
func (r *Registry) RegisterDefaultTemplates() error {
	for _, t := range DefaultTemplates() {
		if err := r.Register(t); err != nil {
			return err
		}
	}

	return nil
}
