package orchestrator_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/orchestrator"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

func newHybridBuilder() *orchestrator.DefaultHybridBuilder {
	return orchestrator.NewDefaultHybridBuilder(templates.NewInstantiator(templates.NewStore(), testLogger()))
}

func TestDefaultHybridBuilderFeedsFirstArtifact(t *testing.T) {
	builder := newHybridBuilder()

	cloudResult := &models.JobResult{Outputs: []models.Artifact{
		{Name: "raw.png", URL: "https://fal.media/files/raw.png", Kind: models.ArtifactImage},
		{Name: "alt.png", URL: "https://fal.media/files/alt.png", Kind: models.ArtifactImage},
	}}

	payload, err := builder.Build(cloudResult, models.GenerationRequest{
		TaskType: "image", ModelID: "z-image-turbo", Prompt: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.PostProcessTemplateID, payload.TemplateID)

	graphJSON, err := json.Marshal(payload.Graph)
	require.NoError(t, err)
	assert.Contains(t, string(graphJSON), "https://fal.media/files/raw.png")
	assert.NotContains(t, string(graphJSON), "alt.png")
}

func TestDefaultHybridBuilderRequiresArtifacts(t *testing.T) {
	builder := newHybridBuilder()

	_, err := builder.Build(&models.JobResult{}, models.GenerationRequest{TaskType: "image", ModelID: "m", Prompt: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrNoCloudArtifact)

	_, err = builder.Build(nil, models.GenerationRequest{TaskType: "image", ModelID: "m", Prompt: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrNoCloudArtifact)
}
