package models

// ExpressionPattern matches config strings carrying a {{...}} expression.
const ExpressionPattern = `\{\{.*\}\}`

// ConditionOperators lists the operators accepted in conditions properties.
var ConditionOperators = []string{"equals", "notEquals", "contains", "greaterThan", "lessThan"}

// JSONSchema builds a JSON Schema describing the legal config values of the
// template. Expressions are accepted wherever a scalar is expected since they
// are only evaluated at execution time. Required-ness is not encoded here.
func (t *NodeTemplate) JSONSchema() map[string]any {
	properties := make(map[string]any, len(t.Properties))

	for _, p := range t.Properties {
		properties[p.Name] = p.JSONSchema()
	}

	return map[string]any{
		"type":       "object",
		"title":      t.Name,
		"properties": properties,
	}
}

// JSONSchema returns the schema of a single property.
func (p PropertyDescriptor) JSONSchema() map[string]any {
	expression := map[string]any{"type": "string", "pattern": ExpressionPattern}

	switch p.Type {
	case PropertyTypeString, PropertyTypeText, PropertyTypeCode, PropertyTypeFile:
		return map[string]any{"type": "string"}
	case PropertyTypeSelect:
		if len(p.Options) == 0 {
			return map[string]any{"type": "string"}
		}

		enum := make([]any, len(p.Options))
		for i, o := range p.Options {
			enum[i] = o
		}

		return map[string]any{"anyOf": []any{
			map[string]any{"type": "string", "enum": enum},
			expression,
		}}
	case PropertyTypeNumber:
		number := map[string]any{"type": "number"}
		if p.Min != nil {
			number["minimum"] = *p.Min
		}

		if p.Max != nil {
			number["maximum"] = *p.Max
		}

		return map[string]any{"anyOf": []any{
			number,
			expression,
			map[string]any{"type": "string", "maxLength": 0},
		}}
	case PropertyTypeBoolean:
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "boolean"},
			expression,
		}}
	case PropertyTypeKeyValue:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		}
	case PropertyTypeArray:
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	case PropertyTypeConditions:
		operators := make([]any, len(ConditionOperators))
		for i, o := range ConditionOperators {
			operators[i] = o
		}

		return map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field":    map[string]any{"type": "string"},
					"operator": map[string]any{"type": "string", "enum": operators},
					"value":    map[string]any{},
				},
				"required": []any{"field", "operator"},
			},
		}
	default:
		// json and unknown types accept anything
		return map[string]any{}
	}
}

// Condition is one entry of a conditions property.
type Condition struct {
	Field    string `json:"field"    validate:"required"`
	Operator string `json:"operator" validate:"required,oneof=equals notEquals contains greaterThan lessThan"`
	Value    any    `json:"value"`
}
