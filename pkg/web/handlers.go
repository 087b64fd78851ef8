package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/router"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

// EnginePinger reports whether the local generation engine is reachable.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

// APIHandlers bundles the HTTP handlers for the generation API.
type APIHandlers struct {
	generations *services.Generations
	catalog     *catalog.Catalog
	store       *templates.Store
	detector    hardware.Detector
	engine      EnginePinger
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewAPIHandlers wires the handler set. The engine pinger may be nil when the
// gateway runs without a local engine configured.
func NewAPIHandlers(
	logger *slog.Logger,
	generations *services.Generations,
	cat *catalog.Catalog,
	store *templates.Store,
	detector hardware.Detector,
	engine EnginePinger,
) *APIHandlers {
	return &APIHandlers{
		generations: generations,
		catalog:     cat,
		store:       store,
		detector:    detector,
		engine:      engine,
		validator:   validator.New(),
		logger:      logger.With("module", "web"),
	}
}

// Register mounts every route on the given app.
func (h *APIHandlers) Register(app *fiber.App) {
	generations := app.Group("/generations")
	generations.Post("/", h.CreateGeneration)
	generations.Get("/", h.ListGenerations)
	generations.Get("/:id", h.GetGeneration)
	generations.Post("/:id/resume", h.ResumeGeneration)

	app.Get("/models", h.GetModels)
	app.Get("/templates", h.GetTemplates)
	app.Post("/route", h.RouteGeneration)
	app.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.generations.HealthCheck(c.Context())

	engineCheck := "not configured"
	if h.engine != nil {
		engineCheck = "reachable"
		if err := h.engine.Ping(c.Context()); err != nil {
			engineCheck = "unreachable: " + err.Error()
		}
	}

	status := "unhealthy"
	message := "CinemaOS gateway is unhealthy"
	httpStatus := http.StatusInternalServerError

	// A stopped engine is a normal state, jobs route to the cloud. Only the
	// repository gates overall health.
	if repOk {
		status = "healthy"
		message = "CinemaOS gateway is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"engine":     engineCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// CreateGeneration accepts a generation request. By default the job is queued
// for a runner and acknowledged with 202; with ?mode=sync it runs inline and
// the response carries the terminal result.
func (h *APIHandlers) CreateGeneration(c fiber.Ctx) error {
	var req models.GenerationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if c.Query("mode") == "sync" {
		record, result, err := h.generations.RunSync(c.Context(), req)
		if err != nil {
			if record != nil {
				h.logger.ErrorContext(c.Context(), "Synchronous generation failed",
					"job_id", record.ID, "error", err)
			}

			return handleServiceError(c, err)
		}

		return c.JSON(SyncResponse{ID: record.ID, Status: record.Status, Result: result})
	}

	record, err := h.generations.Enqueue(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(QueuedResponse{ID: record.ID, Status: record.Status})
}

func (h *APIHandlers) GetGeneration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Job ID is required")
	}

	record, err := h.generations.Get(c.Context(), id)
	if err != nil {
		if persistence.IsJobNotFound(err) {
			return notFound(c, "job not found")
		}

		return internalError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) ListGenerations(c fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	jobs, err := h.generations.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ListGenerationsResponse{
		Jobs:       jobs,
		Pagination: PaginationResponse{Limit: req.Limit, Offset: req.Offset},
	})
}

// ResumeGeneration re-attaches to a submitted cloud job and waits for its
// result. An optional ?timeout query bounds the wait in seconds.
func (h *APIHandlers) ResumeGeneration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Job ID is required")
	}

	var timeout time.Duration

	if raw := c.Query("timeout"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return badRequest(c, "Invalid timeout: must be a positive number of seconds")
		}

		timeout = time.Duration(seconds) * time.Second
	}

	record, result, err := h.generations.Resume(c.Context(), id, timeout)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(SyncResponse{ID: record.ID, Status: record.Status, Result: result})
}

func (h *APIHandlers) GetModels(c fiber.Ctx) error {
	return c.JSON(ModelsResponse{Models: h.catalog.Entries()})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	ids := h.store.IDs()
	summaries := make([]TemplateSummary, 0, len(ids))

	for _, id := range ids {
		tpl, ok := h.store.Get(id)
		if !ok {
			continue
		}

		summaries = append(summaries, TemplateSummary{
			ID:              tpl.ID,
			Name:            tpl.Name,
			Description:     tpl.Description,
			LocalCompatible: tpl.LocalCompatible,
			RequiresCredits: tpl.RequiresCredits,
			EstimatedCost:   tpl.EstimatedCost,
		})
	}

	return c.JSON(TemplatesResponse{Templates: summaries})
}

// RouteGeneration answers where a request WOULD run, without creating a job.
func (h *APIHandlers) RouteGeneration(c fiber.Ctx) error {
	var req models.GenerationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return handleServiceError(c, services.NewValidationError(
			"Route", "validation_error", err.Error(), services.ErrInvalidRequest))
	}

	profile, err := h.detector.Profile(c.Context())
	if err != nil {
		h.logger.WarnContext(c.Context(), "Hardware detection failed, assuming no local capability", "error", err)

		profile = models.HardwareProfile{}
	}

	plan := router.Route(models.ParseTaskType(req.TaskType), req.ModelID, req.PreferLocal, profile, h.catalog)

	return c.JSON(RouteResponse{Plan: plan, Profile: profile})
}

func parseListRequest(c fiber.Ctx) (*services.ListJobsRequest, error) {
	req := &services.ListJobsRequest{Status: c.Query("status")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	return req, nil
}
