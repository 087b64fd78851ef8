package models

import "time"

// Backend identifies which driver owns a job.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendCloud Backend = "cloud"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"          // Accepted, not yet routed
	JobStatusRouting        JobStatus = "routing"         // Plan being computed
	JobStatusSubmitted      JobStatus = "submitted"       // Accepted by a backend
	JobStatusRunning        JobStatus = "running"         // Backend reported progress
	JobStatusPostProcessing JobStatus = "post_processing" // Hybrid local stage
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
	JobStatusCancelled      JobStatus = "cancelled"
)

// IsTerminal reports whether no further status change can happen.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known lifecycle statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRouting, JobStatusSubmitted, JobStatusRunning,
		JobStatusPostProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// TerminalStatuses lists every status IsTerminal accepts, in a stable order
// usable in persistence filters.
func TerminalStatuses() []JobStatus {
	return []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
}

// JobHandle is the live identity of one dispatched job. It exists from the
// moment a driver accepts a payload until the terminal result is delivered.
// Status is its only mutable field.
type JobHandle struct {
	CorrelationID string    `json:"correlation_id"`
	Backend       Backend   `json:"backend"`
	Status        JobStatus `json:"status"`
}

// ProgressEvent is a streamed, ephemeral notification about one job. Events
// are forwarded to the caller's sink in emission order and never stored.
type ProgressEvent struct {
	JobID    string  `json:"job_id"`
	NodeID   string  `json:"node_id,omitempty"`
	Fraction float64 `json:"fraction"`
	Phase    string  `json:"phase,omitempty"`
}

// ArtifactKind classifies a produced output.
type ArtifactKind string

const (
	ArtifactImage   ArtifactKind = "image"
	ArtifactVideo   ArtifactKind = "video"
	ArtifactAudio   ArtifactKind = "audio"
	ArtifactModel3D ArtifactKind = "model3d"
	ArtifactMask    ArtifactKind = "mask"
	ArtifactText    ArtifactKind = "text"
)

// Artifact is one addressable output of a completed job.
type Artifact struct {
	Name   string       `json:"name"`
	URL    string       `json:"url"`
	Kind   ArtifactKind `json:"kind"`
	NodeID string       `json:"node_id,omitempty"`
}

// JobResult is produced exactly once per job; ownership transfers to the
// caller. Text is set by direct text completions, Outputs by workflow and
// queue backends. Raw keeps the backend's unmapped response for callers that
// need provider-specific fields.
type JobResult struct {
	Outputs []Artifact     `json:"outputs"`
	Text    string         `json:"text,omitempty"`
	Raw     map[string]any `json:"raw,omitempty"`
}

// Ticket is the opaque handle a cloud queue returns on submission. The id is
// always present; the URLs are backend hints and may be empty, in which case
// the driver derives them from the submit endpoint.
type Ticket struct {
	ID        string `json:"ticket_id"`
	StatusURL string `json:"status_url,omitempty"`
	ResultURL string `json:"result_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

// JobRecord is the persisted view of a job, kept for listing, resumption and
// retention. It deliberately stores raw task/model strings as received.
type JobRecord struct {
	ID           string          `json:"id"                      validate:"required"`
	TaskType     string          `json:"task_type"               validate:"required"`
	ModelID      string          `json:"model_id"                validate:"required"`
	TemplateID   string          `json:"template_id,omitempty"`
	Target       ExecutionTarget `json:"target,omitempty"`
	Status       JobStatus       `json:"status"                  validate:"required"`
	TicketID     string          `json:"ticket_id,omitempty"`
	Outputs      []Artifact      `json:"outputs,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
