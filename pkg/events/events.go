// Package events defines the event types published over the job lifecycle.
package events

import (
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const Topic = "cinemaos.jobs"                  // Job lifecycle events
const ProgressTopic = "cinemaos.jobs.progress" // High-frequency progress stream

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Job lifecycle events.
	JobQueuedEvent    EventType = "job.queued"
	JobRoutedEvent    EventType = "job.routed"
	JobSubmittedEvent EventType = "job.submitted"
	JobProgressEvent  EventType = "job.progress"
	JobCompletedEvent EventType = "job.completed"
	JobFailedEvent    EventType = "job.failed"

	// Cloud queue events.
	TicketIssuedEvent EventType = "ticket.issued"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	JobID     string         `json:"job_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// JobQueued is published when a generation request is accepted, before any
// routing decision exists. Request carries the full submission so a runner
// can execute the job without a record round-trip; the flat fields exist for
// consumers that only filter the stream.
type JobQueued struct {
	BaseEvent

	TaskType    string                   `json:"task_type"`
	ModelID     string                   `json:"model_id"`
	PreferLocal bool                     `json:"prefer_local"`
	Request     models.GenerationRequest `json:"request"`
}

func (j JobQueued) GetType() EventType {
	return JobQueuedEvent
}

// JobRouted carries the routing decision. Exactly one of the fast-path or
// workflow field groups is populated, matching the plan kind.
type JobRouted struct {
	BaseEvent

	PlanKind   models.PlanKind        `json:"plan_kind"`
	Provider   models.Provider        `json:"provider,omitempty"`
	TemplateID string                 `json:"template_id,omitempty"`
	Target     models.ExecutionTarget `json:"target,omitempty"`
}

func (j JobRouted) GetType() EventType {
	return JobRoutedEvent
}

// JobSubmitted is published once a backend accepts the job. CorrelationID is
// the backend's own identifier for it.
type JobSubmitted struct {
	BaseEvent

	Backend       models.Backend `json:"backend"`
	CorrelationID string         `json:"correlation_id"`
}

func (j JobSubmitted) GetType() EventType {
	return JobSubmittedEvent
}

// JobProgress mirrors one streamed progress notification. These events are
// ephemeral and flow on their own topic.
type JobProgress struct {
	BaseEvent

	NodeID   string  `json:"node_id,omitempty"`
	Fraction float64 `json:"fraction"`
	Phase    string  `json:"phase,omitempty"`
}

func (j JobProgress) GetType() EventType {
	return JobProgressEvent
}

type JobCompleted struct {
	BaseEvent

	Outputs    []models.Artifact `json:"outputs"`
	DurationMs int64             `json:"duration_ms"`
}

func (j JobCompleted) GetType() EventType {
	return JobCompletedEvent
}

type JobFailed struct {
	BaseEvent

	Code       string `json:"code"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
	DurationMs int64  `json:"duration_ms"`
}

func (j JobFailed) GetType() EventType {
	return JobFailedEvent
}

// TicketIssued is published when a cloud queue returns a ticket, so the job
// can be resumed after a restart.
type TicketIssued struct {
	BaseEvent

	Ticket models.Ticket `json:"ticket"`
}

func (t TicketIssued) GetType() EventType {
	return TicketIssuedEvent
}

func NewBaseEvent(eventType EventType, jobID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
		Metadata:  make(map[string]any),
	}
}
