package models

// PropertyType is the type tag of a node template property. It decides which
// config values are legal for the property and how it is edited.
type PropertyType string

const (
	PropertyTypeString     PropertyType = "string"
	PropertyTypeText       PropertyType = "text"
	PropertyTypeCode       PropertyType = "code"
	PropertyTypeNumber     PropertyType = "number"
	PropertyTypeSelect     PropertyType = "select"
	PropertyTypeBoolean    PropertyType = "boolean"
	PropertyTypeJSON       PropertyType = "json"
	PropertyTypeFile       PropertyType = "file"
	PropertyTypeKeyValue   PropertyType = "keyValue"
	PropertyTypeArray      PropertyType = "array"
	PropertyTypeConditions PropertyType = "conditions"
)

// PropertyTypes lists every known property type.
var PropertyTypes = []PropertyType{
	PropertyTypeString,
	PropertyTypeText,
	PropertyTypeCode,
	PropertyTypeNumber,
	PropertyTypeSelect,
	PropertyTypeBoolean,
	PropertyTypeJSON,
	PropertyTypeFile,
	PropertyTypeKeyValue,
	PropertyTypeArray,
	PropertyTypeConditions,
}

// NodeTemplate describes a node type: its display metadata, port counts and
// configurable properties. Templates are owned by the node catalog.
type NodeTemplate struct {
	ID          string               `json:"id"                    validate:"required"`
	Name        string               `json:"name"                  validate:"required"`
	Icon        string               `json:"icon,omitempty"`
	Color       string               `json:"color,omitempty"`
	Category    string               `json:"category,omitempty"`
	Description string               `json:"description,omitempty"`
	Inputs      int                  `json:"inputs"                validate:"min=0"`
	Outputs     int                  `json:"outputs"               validate:"min=0"`
	Properties  []PropertyDescriptor `json:"properties,omitempty"  validate:"dive"`
	Sample      *SampleShape         `json:"sample,omitempty"`
}

// PropertyDescriptor describes one configurable property of a node template.
type PropertyDescriptor struct {
	Name        string       `json:"name"                  validate:"required"`
	Label       string       `json:"label"`
	Type        PropertyType `json:"type"                  validate:"required,oneof=string text code number select boolean json file keyValue array conditions"`
	Required    bool         `json:"required,omitempty"`
	Default     any          `json:"default,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Min         *float64     `json:"min,omitempty"`
	Max         *float64     `json:"max,omitempty"`
	Step        *float64     `json:"step,omitempty"`
	Description string       `json:"description,omitempty"`
}

// DisplayLabel returns the label, falling back to the property name.
func (p PropertyDescriptor) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}

	return p.Name
}

// HasDefault reports whether the property declares a default value.
func (p PropertyDescriptor) HasDefault() bool {
	return p.Default != nil
}

// SampleShape declares what a node's output looks like. It drives variable
// suggestions and design-time previews without hardcoding node types.
type SampleShape struct {
	Fields     []SampleField `json:"fields,omitempty"`
	LoopFields []SampleField `json:"loopFields,omitempty"`
	Output     any           `json:"output,omitempty"`
}

// SampleField is a suggested path into a node's output.
type SampleField struct {
	Label       string `json:"label"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Property returns the property with the given name.
func (t *NodeTemplate) Property(name string) (PropertyDescriptor, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}

	return PropertyDescriptor{}, false
}

// Defaults returns a config map holding every declared default value.
func (t *NodeTemplate) Defaults() map[string]any {
	config := make(map[string]any)

	for _, p := range t.Properties {
		if p.HasDefault() {
			config[p.Name] = CloneValue(p.Default)
		}
	}

	return config
}

// DuplicatePropertyNames returns property names declared more than once.
func (t *NodeTemplate) DuplicatePropertyNames() []string {
	seen := make(map[string]bool, len(t.Properties))

	var dups []string

	for _, p := range t.Properties {
		if seen[p.Name] {
			dups = append(dups, p.Name)

			continue
		}

		seen[p.Name] = true
	}

	return dups
}

// TemplateCatalog looks templates up by node type.
type TemplateCatalog interface {
	Template(nodeType string) (*NodeTemplate, bool)
}

// TemplateSet is a fixed TemplateCatalog keyed by template id.
type TemplateSet map[string]*NodeTemplate

// NewTemplateSet indexes templates by id.
func NewTemplateSet(templates ...*NodeTemplate) TemplateSet {
	set := make(TemplateSet, len(templates))
	for _, t := range templates {
		set[t.ID] = t
	}

	return set
}

func (s TemplateSet) Template(nodeType string) (*NodeTemplate, bool) {
	t, ok := s[nodeType]

	return t, ok
}
