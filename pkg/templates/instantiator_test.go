package templates_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstantiator(t *testing.T, store *templates.Store) *templates.Instantiator {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return templates.NewInstantiator(store, logger)
}

func imageRequest() models.GenerationRequest {
	seed := int64(42)

	return models.GenerationRequest{
		TaskType: "image",
		ModelID:  "z-image-turbo",
		Prompt:   "a lighthouse at dusk",
		Width:    512,
		Height:   768,
		Seed:     &seed,
	}
}

func node(t *testing.T, payload *models.WorkflowPayload, id string) map[string]any {
	t.Helper()

	raw, ok := payload.Graph[id]
	require.True(t, ok, "node %s missing", id)

	nodeMap, ok := raw.(map[string]any)
	require.True(t, ok, "node %s is not an object", id)

	return nodeMap
}

func inputs(t *testing.T, payload *models.WorkflowPayload, id string) map[string]any {
	t.Helper()

	in, ok := node(t, payload, id)["inputs"].(map[string]any)
	require.True(t, ok, "node %s has no inputs object", id)

	return in
}

func TestInstantiateTextToImage(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())

	payload, err := inst.Instantiate("t2i", imageRequest())
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, "t2i", payload.TemplateID)
	assert.Len(t, payload.Graph, 7)

	assert.Equal(t, "a lighthouse at dusk", inputs(t, payload, "2")["text"])
	assert.Equal(t, "", inputs(t, payload, "3")["text"], "negative prompt defaults to empty")

	latent := inputs(t, payload, "4")
	assert.Equal(t, float64(512), latent["width"], "request width overrides default")
	assert.Equal(t, float64(768), latent["height"])

	sampler := inputs(t, payload, "5")
	assert.Equal(t, float64(42), sampler["seed"], "request seed overrides default")
	assert.Equal(t, float64(28), sampler["steps"], "steps come from template defaults")
}

func TestInstantiateIsIdempotent(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())
	req := imageRequest()

	first, err := inst.Instantiate("t2i", req)
	require.NoError(t, err)

	second, err := inst.Instantiate("t2i", req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical request and template must yield structurally identical payloads")
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())

	payload, err := inst.Instantiate("no-such-template", imageRequest())

	require.Error(t, err)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.True(t, templates.IsNotFound(err))
	assert.False(t, templates.IsCorrupt(err))

	var tplErr *templates.TemplateError
	require.ErrorAs(t, err, &tplErr)
	assert.Equal(t, "no-such-template", tplErr.TemplateID)
}

func TestInstantiatePromptContentCannotBreakGraph(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())

	req := imageRequest()
	req.Prompt = "a \"quoted\" prompt\nwith a newline and a } brace"

	payload, err := inst.Instantiate("t2i", req)
	require.NoError(t, err)
	assert.Equal(t, req.Prompt, inputs(t, payload, "2")["text"])
}

func TestInstantiateParamsOverrideDefaultsButNotRequestFields(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())

	req := imageRequest()
	req.Params = map[string]any{
		"steps":  50,
		"prompt": "params must not shadow the request prompt",
	}

	payload, err := inst.Instantiate("t2i", req)
	require.NoError(t, err)

	assert.Equal(t, float64(50), inputs(t, payload, "5")["steps"])
	assert.Equal(t, "a lighthouse at dusk", inputs(t, payload, "2")["text"])
}

func TestInstantiateDurationFlowsIntoAudioGraph(t *testing.T) {
	t.Parallel()

	inst := newInstantiator(t, templates.NewStore())

	req := models.GenerationRequest{
		TaskType:        "music",
		ModelID:         "suno-v4",
		Prompt:          "tense orchestral underscore",
		DurationSeconds: 30,
	}

	payload, err := inst.Instantiate("t2a", req)
	require.NoError(t, err)
	assert.Equal(t, float64(30), inputs(t, payload, "1")["seconds"])
}

func corruptStore(t *testing.T, graph string) *templates.Store {
	t.Helper()

	dir := t.TempDir()
	manifest := "id: broken\nname: Broken\ngraph: |\n"

	for _, line := range strings.Split(graph, "\n") {
		manifest += "  " + line + "\n"
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(manifest), 0o600))

	store := templates.NewStore()
	require.NoError(t, store.LoadDir(dir))

	return store
}

func TestInstantiateCorruptTemplates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		graph string
	}{
		{
			name:  "unbalanced placeholder",
			graph: `{"1": {"class_type": "X", "inputs": {"text": {{.prompt}}}`,
		},
		{
			name:  "renders to invalid json",
			graph: `{"1": {"class_type": "X", "inputs": {"text": {{.prompt}}},}`,
		},
		{
			name:  "placeholder without value or default",
			graph: `{"1": {"class_type": "X", "inputs": {"text": {{.never_bound}}}}`,
		},
		{
			name:  "node missing class_type",
			graph: `{"1": {"inputs": {"text": {{.prompt}}}}}`,
		},
		{
			name:  "node inputs not an object",
			graph: `{"1": {"class_type": "X", "inputs": 3}}`,
		},
		{
			name:  "top level not an object",
			graph: `["not", "a", "graph"]`,
		},
		{
			name:  "empty graph object",
			graph: `{}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			inst := newInstantiator(t, corruptStore(t, tc.graph))

			payload, err := inst.Instantiate("broken", imageRequest())

			require.Error(t, err)
			assert.Nil(t, payload, "a payload that fails validation must never be returned")
			assert.ErrorIs(t, err, templates.ErrTemplateCorrupt)
			assert.False(t, templates.IsNotFound(err))
		})
	}
}
