// Package validation checks node configurations against their templates.
package validation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dukex/flowcanvas/pkg/expression"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// ErrValidation indicates at least one config property is invalid.
var ErrValidation = errors.New("validation failed")

const (
	msgInvalidURL   = "Please enter a valid URL or use an expression"
	msgInvalidEmail = "Please enter a valid email address or use an expression"
)

// Errors maps property names to a message. Every invalid property is listed.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}

	return strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// Err returns e as an error, or nil when empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}

	return e
}

// Validator validates node configurations.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

var defaultValidator = New()

// ValidateConfig validates config with the default validator.
func ValidateConfig(template *models.NodeTemplate, config map[string]any) Errors {
	return defaultValidator.ValidateConfig(template, config)
}

// ValidateConfig checks every template property against config. The
// required rule reads the effective value: the config entry when present,
// even if null, and the default otherwise. Format checks read the config
// entry only.
func (v *Validator) ValidateConfig(template *models.NodeTemplate, config map[string]any) Errors {
	errs := Errors{}

	for _, p := range template.Properties {
		value, ok := config[p.Name]

		effective := value
		if !ok {
			effective = p.Default
		}

		if msg := v.checkProperty(p, effective, value); msg != "" {
			errs[p.Name] = msg
		}
	}

	for name, msg := range v.typeErrors(template, config) {
		if _, exists := errs[name]; !exists {
			errs[name] = msg
		}
	}

	return errs
}

func (v *Validator) checkProperty(p models.PropertyDescriptor, effective, explicit any) string {
	if p.Required && IsAbsent(effective) {
		return p.DisplayLabel() + " is required"
	}

	s, isString := explicit.(string)
	if p.Type != models.PropertyTypeString || !isString || s == "" || expression.ContainsExpression(s) {
		return ""
	}

	if p.Name == "url" && v.validate.Var(s, "url") != nil {
		return msgInvalidURL
	}

	if strings.Contains(p.Name, "Email") && v.validate.Var(s, "email") != nil {
		return msgInvalidEmail
	}

	return ""
}

// IsAbsent applies the required rule: nil, the empty string and NaN are
// absent; zero and false are present.
func IsAbsent(value any) bool {
	switch val := value.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	default:
		return false
	}
}

// typeErrors checks the legality of every present value against the JSON
// Schema derived from the template, keeping one message per property.
func (v *Validator) typeErrors(template *models.NodeTemplate, config map[string]any) Errors {
	errs := Errors{}
	document := make(map[string]any, len(config))

	for _, p := range template.Properties {
		value, ok := config[p.Name]
		if !ok || value == nil {
			continue
		}

		if f, isFloat := value.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
			errs[p.Name] = typeMessage(p, value)

			continue
		}

		document[p.Name] = value
	}

	if len(document) == 0 {
		return errs
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(template.JSONSchema()),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		// the schema is generated, so this only happens for values that
		// cannot be encoded as JSON
		for name := range document {
			errs[name] = fmt.Sprintf("%s has an unsupported value", name)
		}

		return errs
	}

	for _, desc := range result.Errors() {
		name := topLevelField(desc.Field())
		if name == "" {
			continue
		}

		if _, exists := errs[name]; exists {
			continue
		}

		p, ok := template.Property(name)
		if !ok {
			continue
		}

		errs[name] = typeMessage(p, document[name])
	}

	return errs
}

func topLevelField(field string) string {
	if field == "" || field == gojsonschema.STRING_CONTEXT_ROOT {
		return ""
	}

	name, _, _ := strings.Cut(field, ".")

	return name
}

func typeMessage(p models.PropertyDescriptor, value any) string {
	label := p.DisplayLabel()

	switch p.Type {
	case models.PropertyTypeSelect:
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(p.Options, ", "))
	case models.PropertyTypeNumber:
		if f, ok := value.(float64); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			if p.Min != nil && f < *p.Min {
				return fmt.Sprintf("%s must be at least %v", label, *p.Min)
			}

			if p.Max != nil && f > *p.Max {
				return fmt.Sprintf("%s must be at most %v", label, *p.Max)
			}
		}

		return label + " must be a number"
	case models.PropertyTypeBoolean:
		return label + " must be true or false"
	case models.PropertyTypeKeyValue:
		return label + " must be a map of text values"
	case models.PropertyTypeArray:
		return label + " must be a list of text values"
	case models.PropertyTypeConditions:
		return fmt.Sprintf("%s must be a list of conditions with a field and one of the operators %s",
			label, strings.Join(models.ConditionOperators, ", "))
	default:
		return label + " must be text"
	}
}

// ApplyDefaults returns a copy of config where every absent property with a
// default is filled in. This is the config that gets saved.
func ApplyDefaults(template *models.NodeTemplate, config map[string]any) map[string]any {
	out := models.CloneConfig(config)
	if out == nil {
		out = make(map[string]any)
	}

	for _, p := range template.Properties {
		if _, ok := out[p.Name]; !ok && p.HasDefault() {
			out[p.Name] = models.CloneValue(p.Default)
		}
	}

	return out
}

// Warning is an advisory finding that never blocks a save.
type Warning struct {
	Property string `json:"property"`
	NodeID   string `json:"nodeId,omitempty"`
	Message  string `json:"message"`
}

// CheckReferences reports expressions in config that read nodes which are
// not upstream of nodeID, or $prev on a node without inputs.
func CheckReferences(g models.Graph, nodeID string, config map[string]any) []Warning {
	upstream := make(map[string]bool)
	for _, n := range graph.TransitiveUpstream(g, nodeID) {
		upstream[n.ID] = true
	}

	hasPrev := len(graph.DirectPredecessors(g, nodeID)) > 0

	names := make([]string, 0, len(config))
	for name := range config {
		names = append(names, name)
	}

	sort.Strings(names)

	var warnings []Warning

	for _, name := range names {
		for _, ref := range expression.ValueReferences(config[name]) {
			switch {
			case ref.Kind == expression.KindPrev && !hasPrev:
				warnings = append(warnings, Warning{
					Property: name,
					Message:  fmt.Sprintf("{{%s}} is used but the node has no incoming connection", ref.Expr),
				})
			case ref.Kind == expression.KindNode && !g.HasNode(ref.NodeID):
				warnings = append(warnings, Warning{
					Property: name, NodeID: ref.NodeID,
					Message: fmt.Sprintf("{{%s}} refers to an unknown node", ref.Expr),
				})
			case ref.Kind == expression.KindNode && !upstream[ref.NodeID]:
				warnings = append(warnings, Warning{
					Property: name, NodeID: ref.NodeID,
					Message: fmt.Sprintf("{{%s}} refers to a node that is not upstream", ref.Expr),
				})
			}
		}
	}

	return warnings
}

// WorkflowError collects the configuration errors of every node.
type WorkflowError struct {
	Nodes map[string]Errors
}

func (e *WorkflowError) Error() string {
	ids := make([]string, 0, len(e.Nodes))
	for id := range e.Nodes {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("node %s: %v", id, e.Nodes[id])
	}

	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *WorkflowError) Is(target error) bool {
	return target == ErrValidation
}

// ValidateGraph checks graph integrity and then every node config whose type
// is known to catalog. Nodes of unknown type are skipped.
func (v *Validator) ValidateGraph(g models.Graph, catalog models.TemplateCatalog) error {
	if err := graph.Validate(g); err != nil {
		return err
	}

	nodes := make(map[string]Errors)

	for _, n := range g.Nodes {
		tmpl, ok := catalog.Template(n.Type)
		if !ok {
			continue
		}

		if errs := v.ValidateConfig(tmpl, n.Data.Config); len(errs) > 0 {
			nodes[n.ID] = errs
		}
	}

	if len(nodes) > 0 {
		return &WorkflowError{Nodes: nodes}
	}

	return nil
}

// ValidateGraph validates g with the default validator.
func ValidateGraph(g models.Graph, catalog models.TemplateCatalog) error {
	return defaultValidator.ValidateGraph(g, catalog)
}
