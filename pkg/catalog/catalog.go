// Package catalog provides the model catalog: the lookup from model
// identifier to serving provider, execution location and routing metadata.
// Entries are external configuration; the catalog itself is read-only after
// construction.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// Entry describes one model with the minimum fields needed to route a
// request. Business-facing fields (pricing, descriptions) live elsewhere.
type Entry struct {
	ID                     string            `json:"id"       yaml:"id"       validate:"required"`
	Name                   string            `json:"name"     yaml:"name"     validate:"required"`
	Provider               models.Provider   `json:"provider" yaml:"provider" validate:"required,oneof=vertex_ai openai anthropic xai elevenlabs runway kling bytedance meshy suno lightricks fal_ai"`
	LocalCapable           bool              `json:"local_capable"                      yaml:"local_capable"`
	MinAcceleratorMemoryGB float64           `json:"min_accelerator_memory_gb,omitempty" yaml:"min_accelerator_memory_gb,omitempty" validate:"gte=0"`
	Endpoint               string            `json:"endpoint,omitempty"                 yaml:"endpoint,omitempty"`
	Capabilities           []models.TaskType `json:"capabilities,omitempty"             yaml:"capabilities,omitempty"`
}

// Catalog is an O(1) read-only model table.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from entries, validating each one. Duplicate ids are
// rejected; later loads that want override semantics go through Merge.
func New(entries []Entry) (*Catalog, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	catalog := &Catalog{entries: make(map[string]Entry, len(entries))}

	for _, entry := range entries {
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("invalid catalog entry %q: %w", entry.ID, err)
		}

		if _, exists := catalog.entries[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog entry %q", entry.ID)
		}

		catalog.entries[entry.ID] = entry
	}

	return catalog, nil
}

// Lookup returns the entry for a model id.
func (c *Catalog) Lookup(modelID string) (Entry, bool) {
	entry, ok := c.entries[modelID]

	return entry, ok
}

// LocalCapable reports whether the model can run on the local engine. Models
// absent from the catalog are treated as cloud-only.
func (c *Catalog) LocalCapable(modelID string) bool {
	entry, ok := c.entries[modelID]

	return ok && entry.LocalCapable
}

// providerPrefixes resolves models that are not in the catalog. Order
// matters: more specific prefixes come before shorter ones.
var providerPrefixes = []struct {
	prefix   string
	provider models.Provider
}{
	{"gemini", models.ProviderVertexAI},
	{"gemma", models.ProviderVertexAI},
	{"paligemma", models.ProviderVertexAI},
	{"veo", models.ProviderVertexAI},
	{"imagen", models.ProviderVertexAI},
	{"lyria", models.ProviderVertexAI},
	{"gpt", models.ProviderOpenAI},
	{"sora", models.ProviderOpenAI},
	{"whisper", models.ProviderOpenAI},
	{"claude", models.ProviderAnthropic},
	{"grok", models.ProviderXAI},
	{"elevenlabs", models.ProviderElevenLabs},
	{"gen-", models.ProviderRunway},
	{"kling", models.ProviderKling},
	{"seed", models.ProviderByteDance},
	{"meshy", models.ProviderMeshy},
	{"suno", models.ProviderSuno},
	{"ltx", models.ProviderLightricks},
}

// ProviderFor resolves the serving provider for a model id. Catalog entries
// win; unknown ids fall back to prefix rules and finally to the fal.ai queue,
// so resolution never fails.
func (c *Catalog) ProviderFor(modelID string) models.Provider {
	if entry, ok := c.entries[modelID]; ok {
		return entry.Provider
	}

	lower := strings.ToLower(modelID)
	for _, rule := range providerPrefixes {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.provider
		}
	}

	return models.ProviderFalAI
}

// EndpointFor returns the cloud queue endpoint for a model. Entries may pin
// an explicit endpoint; everything else maps to the fal.ai convention.
func (c *Catalog) EndpointFor(modelID string) string {
	if entry, ok := c.entries[modelID]; ok && entry.Endpoint != "" {
		return entry.Endpoint
	}

	return "fal-ai/" + modelID
}

// Entries returns all entries sorted by id.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Merge overlays entries onto the catalog, replacing same-id entries. Used
// by file loading to let deployments extend the built-in table.
func (c *Catalog) Merge(entries []Entry) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	for _, entry := range entries {
		if err := validate.Struct(entry); err != nil {
			return fmt.Errorf("invalid catalog entry %q: %w", entry.ID, err)
		}

		c.entries[entry.ID] = entry
	}

	return nil
}
