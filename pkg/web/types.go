// Package web exposes the generation API over HTTP.
package web

import (
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// QueuedResponse acknowledges a generation accepted for background execution.
type QueuedResponse struct {
	ID     string           `json:"id"`
	Status models.JobStatus `json:"status"`
}

// SyncResponse carries the terminal state of a generation that ran inline, or
// of a resumed job.
type SyncResponse struct {
	ID     string            `json:"id"`
	Status models.JobStatus  `json:"status"`
	Result *models.JobResult `json:"result,omitempty"`
}

// ListGenerationsResponse pages job records, newest first.
type ListGenerationsResponse struct {
	Jobs       []*models.JobRecord `json:"jobs"`
	Pagination PaginationResponse  `json:"pagination"`
}

// PaginationResponse echoes the paging window the caller asked for.
type PaginationResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// RouteResponse is a dry-run routing decision together with the hardware
// profile it was made against. No job record is created.
type RouteResponse struct {
	Plan    models.ExecutionPlan   `json:"plan"`
	Profile models.HardwareProfile `json:"profile"`
}

// ModelsResponse lists the catalog entries the gateway can dispatch to.
type ModelsResponse struct {
	Models []catalog.Entry `json:"models"`
}

// TemplateSummary describes one workflow template without its node graph.
type TemplateSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	LocalCompatible bool    `json:"local_compatible"`
	RequiresCredits bool    `json:"requires_credits"`
	EstimatedCost   float64 `json:"estimated_cost"`
}

// TemplatesResponse lists the registered workflow templates.
type TemplatesResponse struct {
	Templates []TemplateSummary `json:"templates"`
}
