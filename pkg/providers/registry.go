// Package providers routes direct text completions to the serving provider
// behind a model id. Workflow tasks never pass through here; this is the
// seam for low-latency chat-style calls only.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// ErrProviderUnavailable indicates no client is registered for the provider.
var ErrProviderUnavailable = errors.New("provider unavailable")

// CallFunc executes one direct completion against a provider.
type CallFunc func(ctx context.Context, modelID string, request *models.GenerationRequest) (*models.JobResult, error)

// Registry holds the registered provider clients. Registration happens at
// startup; calls may then run concurrently.
type Registry struct {
	logger *slog.Logger
	calls  map[models.Provider]CallFunc
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With("module", "providers"),
		calls:  make(map[models.Provider]CallFunc),
	}
}

// Register installs the call function for a provider, replacing any
// previous registration.
func (r *Registry) Register(provider models.Provider, call CallFunc) {
	r.calls[provider] = call
}

// Call executes a direct completion on the named provider.
func (r *Registry) Call(ctx context.Context, provider models.Provider, modelID string, request *models.GenerationRequest) (*models.JobResult, error) {
	call, ok := r.calls[provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider '%s' not registered", ErrProviderUnavailable, provider)
	}

	r.logger.DebugContext(ctx, "Dispatching direct call", "provider", provider, "model_id", modelID)

	return call(ctx, modelID, request)
}

// Available returns the registered providers in a stable order.
func (r *Registry) Available() []models.Provider {
	available := make([]models.Provider, 0, len(r.calls))

	for provider := range r.calls {
		available = append(available, provider)
	}

	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })

	return available
}

// IsProviderUnavailable checks if an error indicates a missing provider
// registration.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
