package models

// GenerationRequest is the immutable input of one generation run. It is
// created by the caller, validated at the boundary, and consumed exactly once
// by the orchestrator. Task and model ids stay raw strings here; parsing into
// closed enums happens when the request enters the routing layer.
type GenerationRequest struct {
	TaskType        string         `json:"task_type"                  validate:"required"`
	ModelID         string         `json:"model_id"                   validate:"required"`
	Prompt          string         `json:"prompt"                     validate:"required"`
	NegativePrompt  string         `json:"negative_prompt,omitempty"`
	Width           int            `json:"width,omitempty"            validate:"omitempty,gt=0,lte=8192"`
	Height          int            `json:"height,omitempty"           validate:"omitempty,gt=0,lte=8192"`
	DurationSeconds float64        `json:"duration_seconds,omitempty" validate:"omitempty,gt=0,lte=600"`
	Seed            *int64         `json:"seed,omitempty"`
	InputArtifact   string         `json:"input_artifact,omitempty"   validate:"omitempty,url"`
	Params          map[string]any `json:"params,omitempty"`
	PreferLocal     bool           `json:"prefer_local"`
}
