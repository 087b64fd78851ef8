package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("bad_request").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service and orchestration errors onto RFC-7807
// problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(fiber.StatusConflict).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsJobNotFound(err):
		return notFound(c, "job not found")
	}

	if jobErr, ok := orchestrator.AsError(err); ok {
		status := statusForCode(jobErr.Code)
		problem := problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType(string(jobErr.Code)).
			WithDetail(jobErr.Error())

		return c.Status(status).JSON(problem)
	}

	return internalError(c, err)
}

// statusForCode translates the orchestration failure taxonomy into HTTP
// statuses. Codes the queue or engine rejected on their merits stay 500.
func statusForCode(code orchestrator.Code) int {
	switch code {
	case orchestrator.CodeTemplateNotFound:
		return fiber.StatusNotFound
	case orchestrator.CodeTemplateCorrupt:
		return fiber.StatusUnprocessableEntity
	case orchestrator.CodeLocalUnavailable:
		return fiber.StatusServiceUnavailable
	case orchestrator.CodePollTimeout:
		return fiber.StatusGatewayTimeout
	case orchestrator.CodeRemoteFailed, orchestrator.CodeResponseParse, orchestrator.CodeChannelClosed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
