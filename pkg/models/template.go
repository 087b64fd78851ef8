package models

// WorkflowTemplate is a named, parameterized execution graph definition.
// Graph holds the textual JSON representation with placeholders; it is never
// mutated after load. Defaults supply placeholder values the request does not
// provide.
type WorkflowTemplate struct {
	ID              string         `json:"id"                    yaml:"id"               validate:"required"`
	Name            string         `json:"name"                  yaml:"name"             validate:"required"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	Graph           string         `json:"graph"                 yaml:"graph"            validate:"required"`
	LocalCompatible bool           `json:"local_compatible"      yaml:"local_compatible"`
	RequiresCredits bool           `json:"requires_credits"      yaml:"requires_credits"`
	EstimatedCost   float64        `json:"estimated_cost"        yaml:"estimated_cost"`
	Defaults        map[string]any `json:"defaults,omitempty"    yaml:"defaults,omitempty"`
}

// WorkflowPayload is the concrete, validated node graph produced by
// instantiating a template. It is owned exclusively by the executing driver
// and discarded when the job ends. A payload that failed validation must
// never reach a driver.
type WorkflowPayload struct {
	TemplateID string         `json:"template_id"`
	Graph      map[string]any `json:"graph"`
}
