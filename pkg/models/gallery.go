package models

// Difficulty rates how much setup a workflow template needs.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// WorkflowTemplate is a ready-made workflow offered by the template gallery.
// Using it copies the graph into a new workflow.
type WorkflowTemplate struct {
	ID            string     `json:"id"            validate:"required"`
	Name          string     `json:"name"          validate:"required"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon,omitempty"`
	Category      string     `json:"category"      validate:"required"`
	Difficulty    Difficulty `json:"difficulty"    validate:"oneof=beginner intermediate advanced"`
	Tags          []string   `json:"tags"`
	EstimatedTime string     `json:"estimatedTime,omitempty"`
	Popularity    int        `json:"popularity"    validate:"gte=0,lte=100"`
	UsageCount    int        `json:"usageCount"`
	Graph
}

// TemplateCategory summarizes one gallery category. The "all" entry counts
// every template.
type TemplateCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// NodeCategory groups the node types of one palette category.
type NodeCategory struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Types []string `json:"types"`
}
