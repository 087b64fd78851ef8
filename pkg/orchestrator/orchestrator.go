// Package orchestrator routes generation requests and drives each one to a
// terminal result on the chosen backend. It owns the job lifecycle between
// "accepted" and "terminal": routing, template instantiation, dispatch,
// ticket persistence, progress fan-out and the final record update.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/eventbus"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/events"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/otelhelper"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/providers"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/router"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

const defaultPollTimeout = 10 * time.Minute

// LocalDriver executes an instantiated workflow graph on the local engine.
// Implemented by comfyui.Client.
type LocalDriver interface {
	Execute(ctx context.Context, payload *models.WorkflowPayload, sink comfyui.ProgressSink) (*models.JobResult, error)
}

// CloudDriver submits jobs to a remote queue and polls them to completion.
// Implemented by fal.Client.
type CloudDriver interface {
	Submit(ctx context.Context, endpoint string, payload map[string]any) (*models.Ticket, error)
	Poll(ctx context.Context, ticket *models.Ticket, timeout time.Duration) (*models.JobResult, error)
}

// DirectCaller serves fast-path text completions without a workflow graph.
// Implemented by providers.Registry.
type DirectCaller interface {
	Call(ctx context.Context, provider models.Provider, modelID string, request *models.GenerationRequest) (*models.JobResult, error)
}

// HybridBuilder turns a finished cloud result into the payload for the local
// post-processing stage.
type HybridBuilder interface {
	Build(cloudResult *models.JobResult, request models.GenerationRequest) (*models.WorkflowPayload, error)
}

// TicketStore persists cloud queue tickets across process restarts.
// Implemented by tickets.RedisStore.
type TicketStore interface {
	Save(ctx context.Context, jobID string, ticket models.Ticket) error
	Load(ctx context.Context, jobID string) (*models.Ticket, error)
	Delete(ctx context.Context, jobID string) error
}

// Config wires the orchestrator's collaborators. Catalog, Detector,
// Instantiator and the three drivers are required; EventBus, Jobs, Tickets
// and Tracer may stay nil, in which case the matching side effects are
// skipped.
type Config struct {
	Catalog      *catalog.Catalog
	Detector     hardware.Detector
	Instantiator *templates.Instantiator
	Local        LocalDriver
	Cloud        CloudDriver
	Direct       DirectCaller
	Hybrid       HybridBuilder
	EventBus     eventbus.EventPublisher
	Jobs         persistence.JobRepository
	Tickets      TicketStore
	Tracer       trace.Tracer
	PollTimeout  time.Duration
}

// Orchestrator is safe for concurrent Run calls; it keeps no cross-job state
// beyond the injected stores.
type Orchestrator struct {
	catalog      *catalog.Catalog
	detector     hardware.Detector
	instantiator *templates.Instantiator
	local        LocalDriver
	cloud        CloudDriver
	direct       DirectCaller
	hybrid       HybridBuilder
	eventBus     eventbus.EventPublisher
	jobs         persistence.JobRepository
	tickets      TicketStore
	tracer       trace.Tracer
	logger       *slog.Logger
	pollTimeout  time.Duration
}

func New(logger *slog.Logger, config Config) (*Orchestrator, error) {
	if config.Catalog == nil {
		return nil, errors.New("orchestrator requires a model catalog")
	}

	if config.Detector == nil {
		return nil, errors.New("orchestrator requires a hardware detector")
	}

	if config.Instantiator == nil {
		return nil, errors.New("orchestrator requires a template instantiator")
	}

	if config.Local == nil || config.Cloud == nil || config.Direct == nil {
		return nil, errors.New("orchestrator requires local, cloud and direct drivers")
	}

	if config.Hybrid == nil {
		config.Hybrid = NewDefaultHybridBuilder(config.Instantiator)
	}

	if config.Tracer == nil {
		config.Tracer = noop.NewTracerProvider().Tracer("orchestrator")
	}

	if config.PollTimeout <= 0 {
		config.PollTimeout = defaultPollTimeout
	}

	return &Orchestrator{
		catalog:      config.Catalog,
		detector:     config.Detector,
		instantiator: config.Instantiator,
		local:        config.Local,
		cloud:        config.Cloud,
		direct:       config.Direct,
		hybrid:       config.Hybrid,
		eventBus:     config.EventBus,
		jobs:         config.Jobs,
		tickets:      config.Tickets,
		tracer:       config.Tracer,
		logger:       logger.With("module", "orchestrator"),
		pollTimeout:  config.PollTimeout,
	}, nil
}

// Run executes one generation request to a terminal result. An empty jobID is
// replaced with a fresh one; callers that persist records pass the record id
// so status updates land on it. Every returned error is an *Error carrying
// the code taxonomy; fallback decisions belong to the caller.
func (o *Orchestrator) Run(ctx context.Context, jobID string, request models.GenerationRequest) (*models.JobResult, error) {
	if jobID == "" {
		jobID = uuid.New().String()
	}

	task := models.ParseTaskType(request.TaskType)

	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "orchestrator.run",
		attribute.String(otelhelper.JobIDKey, jobID),
		attribute.String(otelhelper.TaskTypeKey, string(task)),
		attribute.String(otelhelper.ModelIDKey, request.ModelID),
	)
	defer span.End()

	logger := o.logger.With("job_id", jobID, "task_type", string(task), "model_id", request.ModelID)
	started := time.Now()

	o.setStatus(ctx, logger, jobID, models.JobStatusRouting, "")

	profile, err := o.detector.Profile(ctx)
	if err != nil {
		// A failed probe must not sink the job; an empty profile simply
		// routes away from local execution.
		logger.WarnContext(ctx, "Hardware detection failed, assuming no local capability", "error", err)

		profile = models.HardwareProfile{}
	}

	plan := router.Route(task, request.ModelID, request.PreferLocal, profile, o.catalog)
	span.SetAttributes(attribute.String(otelhelper.PlanKindKey, string(plan.Kind)))
	o.publishRouted(ctx, logger, jobID, plan)

	var result *models.JobResult

	if plan.Kind == models.PlanFastPath {
		result, err = o.runFastPath(ctx, logger, jobID, plan.FastPath, &request)
	} else {
		result, err = o.runWorkflow(ctx, logger, jobID, plan.Workflow, request)
	}

	if err != nil {
		otelhelper.SetError(span, err)
		o.finishFailed(ctx, logger, jobID, err, time.Since(started))

		return nil, err
	}

	o.finishCompleted(ctx, logger, jobID, result, time.Since(started))

	return result, nil
}

// Resume picks up a cloud job whose poll was interrupted. The ticket comes
// from the ticket store when available, or is rebuilt from the bare ticket id
// on the job record; the driver derives the queue URLs from a bare id. A
// timeout of zero means the configured poll timeout.
func (o *Orchestrator) Resume(ctx context.Context, jobID string, timeout time.Duration) (*models.JobResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "orchestrator.resume",
		attribute.String(otelhelper.JobIDKey, jobID),
	)
	defer span.End()

	logger := o.logger.With("job_id", jobID)

	ticket, err := o.loadTicket(ctx, jobID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.TicketIDKey, ticket.ID))

	if timeout <= 0 {
		timeout = o.pollTimeout
	}

	started := time.Now()

	o.setStatus(ctx, logger, jobID, models.JobStatusRunning, "")
	logger.InfoContext(ctx, "Resuming cloud job", "ticket_id", ticket.ID)

	result, err := o.cloud.Poll(ctx, ticket, timeout)
	if err != nil {
		jobErr := newError(StagePoll, jobID, err)
		otelhelper.SetError(span, jobErr)
		o.finishFailed(ctx, logger, jobID, jobErr, time.Since(started))

		return nil, jobErr
	}

	o.dropTicket(ctx, logger, jobID)
	o.finishCompleted(ctx, logger, jobID, result, time.Since(started))

	return result, nil
}

func (o *Orchestrator) runFastPath(ctx context.Context, logger *slog.Logger, jobID string, plan *models.FastPathPlan, request *models.GenerationRequest) (*models.JobResult, error) {
	o.setStatus(ctx, logger, jobID, models.JobStatusSubmitted, "")
	logger.DebugContext(ctx, "Dispatching fast-path completion", "provider", string(plan.Provider))

	result, err := o.direct.Call(ctx, plan.Provider, plan.ModelID, request)
	if err != nil {
		code := CodeExecutionFailed
		if providers.IsProviderUnavailable(err) {
			code = CodeProviderUnavailable
		}

		return nil, &Error{Code: code, Stage: StageExecute, JobID: jobID, Err: err}
	}

	return result, nil
}

func (o *Orchestrator) runWorkflow(ctx context.Context, logger *slog.Logger, jobID string, plan *models.WorkflowPlan, request models.GenerationRequest) (*models.JobResult, error) {
	o.setPlan(ctx, logger, jobID, plan.TemplateID, plan.Target)

	switch plan.Target {
	case models.TargetLocal:
		return o.runLocal(ctx, logger, jobID, plan.TemplateID, request)
	case models.TargetHybrid:
		return o.runHybrid(ctx, logger, jobID, request)
	default:
		return o.runCloud(ctx, logger, jobID, request)
	}
}

func (o *Orchestrator) runLocal(ctx context.Context, logger *slog.Logger, jobID, templateID string, request models.GenerationRequest) (*models.JobResult, error) {
	payload, err := o.instantiator.Instantiate(templateID, request)
	if err != nil {
		return nil, newError(StageTemplate, jobID, err)
	}

	o.setStatus(ctx, logger, jobID, models.JobStatusSubmitted, "")
	logger.InfoContext(ctx, "Executing workflow on local engine", "template_id", templateID)

	result, err := o.local.Execute(ctx, payload, o.progressSink(ctx, logger, jobID, true))
	if err != nil {
		return nil, newError(StageExecute, jobID, err)
	}

	return result, nil
}

func (o *Orchestrator) runCloud(ctx context.Context, logger *slog.Logger, jobID string, request models.GenerationRequest) (*models.JobResult, error) {
	endpoint := o.catalog.EndpointFor(request.ModelID)

	o.setStatus(ctx, logger, jobID, models.JobStatusSubmitted, "")
	logger.InfoContext(ctx, "Submitting job to cloud queue", "endpoint", endpoint)

	ticket, err := o.cloud.Submit(ctx, endpoint, cloudPayload(request))
	if err != nil {
		return nil, newError(StageSubmit, jobID, err)
	}

	o.persistTicket(ctx, logger, jobID, *ticket)
	o.setStatus(ctx, logger, jobID, models.JobStatusRunning, "")

	result, err := o.cloud.Poll(ctx, ticket, o.pollTimeout)
	if err != nil {
		return nil, newError(StagePoll, jobID, err)
	}

	o.dropTicket(ctx, logger, jobID)

	return result, nil
}

// runHybrid is strictly sequential: the local stage starts only after the
// cloud stage delivered a result, and a cloud failure returns with zero local
// calls.
func (o *Orchestrator) runHybrid(ctx context.Context, logger *slog.Logger, jobID string, request models.GenerationRequest) (*models.JobResult, error) {
	cloudResult, err := o.runCloud(ctx, logger, jobID, request)
	if err != nil {
		return nil, err
	}

	o.setStatus(ctx, logger, jobID, models.JobStatusPostProcessing, "")
	logger.InfoContext(ctx, "Cloud stage complete, starting local post-processing")

	payload, err := o.hybrid.Build(cloudResult, request)
	if err != nil {
		return nil, &Error{Code: classify(err), Stage: StagePostProcess, JobID: jobID, Err: err}
	}

	result, err := o.local.Execute(ctx, payload, o.progressSink(ctx, logger, jobID, false))
	if err != nil {
		return nil, &Error{Code: classify(err), Stage: StagePostProcess, JobID: jobID, Err: err}
	}

	return result, nil
}

// progressSink forwards engine progress to the event bus. When markRunning is
// set the first event also moves the record to running; the hybrid post stage
// keeps its post_processing status instead.
func (o *Orchestrator) progressSink(ctx context.Context, logger *slog.Logger, jobID string, markRunning bool) comfyui.ProgressSink {
	var once sync.Once

	return func(event models.ProgressEvent) {
		if markRunning {
			once.Do(func() {
				o.setStatus(ctx, logger, jobID, models.JobStatusRunning, "")
			})
		}

		event.JobID = jobID
		o.publishProgress(ctx, logger, jobID, event)
	}
}

func (o *Orchestrator) loadTicket(ctx context.Context, jobID string) (*models.Ticket, error) {
	if o.tickets != nil {
		ticket, err := o.tickets.Load(ctx, jobID)
		if err == nil {
			return ticket, nil
		}

		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			o.logger.DebugContext(ctx, "Ticket not in store, falling back to job record", "job_id", jobID, "error", err)
		}
	}

	if o.jobs != nil {
		record, err := o.jobs.GetByID(ctx, jobID)
		if err != nil {
			return nil, err
		}

		if record.TicketID != "" {
			return &models.Ticket{ID: record.TicketID}, nil
		}
	}

	return nil, ErrNoTicket
}

// cloudPayload flattens a request into the argument map a queue endpoint
// expects. Params are applied first so the typed fields stay authoritative,
// the same precedence templates use.
func cloudPayload(request models.GenerationRequest) map[string]any {
	payload := make(map[string]any, len(request.Params)+4)

	for key, value := range request.Params {
		payload[key] = value
	}

	payload["prompt"] = request.Prompt

	if request.NegativePrompt != "" {
		payload["negative_prompt"] = request.NegativePrompt
	}

	if request.Width > 0 && request.Height > 0 {
		payload["image_size"] = map[string]any{"width": request.Width, "height": request.Height}
	}

	if request.DurationSeconds > 0 {
		payload["duration"] = request.DurationSeconds
	}

	if request.Seed != nil {
		payload["seed"] = *request.Seed
	}

	if request.InputArtifact != "" {
		payload["image_url"] = request.InputArtifact
	}

	return payload
}

func (o *Orchestrator) setStatus(ctx context.Context, logger *slog.Logger, jobID string, status models.JobStatus, errorMessage string) {
	if o.jobs == nil {
		return
	}

	if err := o.jobs.UpdateStatus(ctx, jobID, status, errorMessage); err != nil {
		logger.ErrorContext(ctx, "Failed to update job status", "status", string(status), "error", err)
	}
}

func (o *Orchestrator) setPlan(ctx context.Context, logger *slog.Logger, jobID, templateID string, target models.ExecutionTarget) {
	if o.jobs == nil {
		return
	}

	if err := o.jobs.SetPlan(ctx, jobID, templateID, target); err != nil {
		logger.ErrorContext(ctx, "Failed to record routing decision", "error", err)
	}
}

func (o *Orchestrator) persistTicket(ctx context.Context, logger *slog.Logger, jobID string, ticket models.Ticket) {
	if o.jobs != nil {
		if err := o.jobs.SetTicket(ctx, jobID, ticket.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to record ticket id", "ticket_id", ticket.ID, "error", err)
		}
	}

	if o.tickets != nil {
		if err := o.tickets.Save(ctx, jobID, ticket); err != nil {
			logger.ErrorContext(ctx, "Failed to persist ticket", "ticket_id", ticket.ID, "error", err)
		}
	}

	o.publish(ctx, logger, jobID, events.TicketIssued{
		BaseEvent: events.NewBaseEvent(events.TicketIssuedEvent, jobID),
		Ticket:    ticket,
	})
	o.publish(ctx, logger, jobID, events.JobSubmitted{
		BaseEvent:     events.NewBaseEvent(events.JobSubmittedEvent, jobID),
		Backend:       models.BackendCloud,
		CorrelationID: ticket.ID,
	})
}

func (o *Orchestrator) dropTicket(ctx context.Context, logger *slog.Logger, jobID string) {
	if o.tickets == nil {
		return
	}

	if err := o.tickets.Delete(ctx, jobID); err != nil {
		logger.ErrorContext(ctx, "Failed to drop finished ticket", "error", err)
	}
}

func (o *Orchestrator) finishCompleted(ctx context.Context, logger *slog.Logger, jobID string, result *models.JobResult, elapsed time.Duration) {
	if o.jobs != nil && len(result.Outputs) > 0 {
		if err := o.jobs.SetOutputs(ctx, jobID, result.Outputs); err != nil {
			logger.ErrorContext(ctx, "Failed to record job outputs", "error", err)
		}
	}

	o.setStatus(ctx, logger, jobID, models.JobStatusCompleted, "")

	o.publish(ctx, logger, jobID, events.JobCompleted{
		BaseEvent:  events.NewBaseEvent(events.JobCompletedEvent, jobID),
		Outputs:    result.Outputs,
		DurationMs: elapsed.Milliseconds(),
	})

	logger.InfoContext(ctx, "Job completed", "outputs", len(result.Outputs), "duration_ms", elapsed.Milliseconds())
}

func (o *Orchestrator) finishFailed(ctx context.Context, logger *slog.Logger, jobID string, err error, elapsed time.Duration) {
	code, stage := CodeInternal, Stage("")

	if jobErr, ok := AsError(err); ok {
		code, stage = jobErr.Code, jobErr.Stage
	}

	o.setStatus(ctx, logger, jobID, models.JobStatusFailed, err.Error())

	o.publish(ctx, logger, jobID, events.JobFailed{
		BaseEvent:  events.NewBaseEvent(events.JobFailedEvent, jobID),
		Code:       string(code),
		Stage:      string(stage),
		Error:      err.Error(),
		DurationMs: elapsed.Milliseconds(),
	})

	logger.ErrorContext(ctx, "Job failed", "code", string(code), "stage", string(stage), "error", err)
}

func (o *Orchestrator) publishRouted(ctx context.Context, logger *slog.Logger, jobID string, plan models.ExecutionPlan) {
	event := events.JobRouted{
		BaseEvent: events.NewBaseEvent(events.JobRoutedEvent, jobID),
		PlanKind:  plan.Kind,
	}

	if plan.Kind == models.PlanFastPath {
		event.Provider = plan.FastPath.Provider
	} else {
		event.TemplateID = plan.Workflow.TemplateID
		event.Target = plan.Workflow.Target
	}

	o.publish(ctx, logger, jobID, event)
}

func (o *Orchestrator) publishProgress(ctx context.Context, logger *slog.Logger, jobID string, progress models.ProgressEvent) {
	event := events.JobProgress{
		BaseEvent: events.NewBaseEvent(events.JobProgressEvent, jobID),
		NodeID:    progress.NodeID,
		Fraction:  progress.Fraction,
		Phase:     progress.Phase,
	}

	o.publish(ctx, logger, jobID, event)
}

func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, jobID string, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, jobID, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}
