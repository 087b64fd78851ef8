package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	require.NotEmpty(t, cat.Entries())

	for _, entry := range cat.Entries() {
		assert.NotEmpty(t, entry.ID)
		assert.NotEmpty(t, entry.Name)
		assert.NotEmpty(t, entry.Provider)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	entry, ok := cat.Lookup("gemma-3n")
	require.True(t, ok)
	assert.True(t, entry.LocalCapable)
	assert.Equal(t, models.ProviderVertexAI, entry.Provider)

	_, ok = cat.Lookup("no-such-model")
	assert.False(t, ok)
}

func TestProviderForPrefixResolution(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	tests := []struct {
		modelID string
		want    models.Provider
	}{
		// Catalog entries win.
		{"claude-opus-4.5", models.ProviderAnthropic},
		{"kling-video-2.6", models.ProviderKling},
		// Unknown ids resolve by prefix.
		{"gemini-2.0-flash", models.ProviderVertexAI},
		{"gemma-2-9b", models.ProviderVertexAI},
		{"veo-2", models.ProviderVertexAI},
		{"gpt-4o-mini", models.ProviderOpenAI},
		{"sora-1", models.ProviderOpenAI},
		{"whisper-large-v3", models.ProviderOpenAI},
		{"claude-haiku-3.5", models.ProviderAnthropic},
		{"grok-2", models.ProviderXAI},
		{"elevenlabs-turbo", models.ProviderElevenLabs},
		{"gen-4", models.ProviderRunway},
		{"kling-1.6", models.ProviderKling},
		{"seedream-3", models.ProviderByteDance},
		{"meshy-5", models.ProviderMeshy},
		{"suno-v5", models.ProviderSuno},
		{"ltx-video", models.ProviderLightricks},
		// Everything else lands on the fal.ai queue.
		{"some-community-model", models.ProviderFalAI},
	}

	for _, tc := range tests {
		t.Run(tc.modelID, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, cat.ProviderFor(tc.modelID))
		})
	}
}

func TestLocalCapable(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	assert.True(t, cat.LocalCapable("z-image-turbo"))
	assert.True(t, cat.LocalCapable("sam-3"))
	assert.False(t, cat.LocalCapable("flux.2"))
	assert.False(t, cat.LocalCapable("unknown-model"), "unknown models are cloud-only")
}

func TestEndpointFor(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	assert.Equal(t, "fal-ai/flux-2", cat.EndpointFor("flux.2"))
	assert.Equal(t, "fal-ai/kling-video/v2.6/pro/text-to-video", cat.EndpointFor("kling-video-2.6"))
	assert.Equal(t, "fal-ai/community-model", cat.EndpointFor("community-model"))
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	_, err := catalog.New([]catalog.Entry{{ID: "x", Name: "X", Provider: "not-a-provider"}})
	require.Error(t, err)

	_, err = catalog.New([]catalog.Entry{{Name: "missing id", Provider: models.ProviderFalAI}})
	require.Error(t, err)

	_, err = catalog.New([]catalog.Entry{
		{ID: "dup", Name: "One", Provider: models.ProviderFalAI},
		{ID: "dup", Name: "Two", Provider: models.ProviderFalAI},
	})
	require.Error(t, err)
}

func TestLoadFileOverlaysEntries(t *testing.T) {
	t.Parallel()

	content := `models:
  - id: studio-private-model
    name: Studio Private Model
    provider: fal_ai
    local_capable: true
    min_accelerator_memory_gb: 10
    endpoint: fal-ai/studio/private
    capabilities: [image]
  - id: flux.2
    name: FLUX.2 Pinned
    provider: fal_ai
    endpoint: fal-ai/flux-2/custom
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cat := catalog.Default()
	require.NoError(t, cat.LoadFile(path))

	added, ok := cat.Lookup("studio-private-model")
	require.True(t, ok)
	assert.True(t, added.LocalCapable)
	assert.Equal(t, "fal-ai/studio/private", cat.EndpointFor("studio-private-model"))

	assert.Equal(t, "fal-ai/flux-2/custom", cat.EndpointFor("flux.2"), "overlay replaces built-in entry")
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	err := cat.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: {not: a list}"), 0o600))
	require.Error(t, cat.LoadFile(path))
}
