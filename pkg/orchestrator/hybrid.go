package orchestrator

import (
	"errors"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

// PostProcessTemplateID names the workflow the hybrid path instantiates for
// the local finishing stage.
const PostProcessTemplateID = "post"

// ErrNoCloudArtifact is returned when the cloud stage of a hybrid job
// delivered nothing the local stage could work on.
var ErrNoCloudArtifact = errors.New("cloud result carries no artifact to post-process")

// DefaultHybridBuilder feeds the first cloud artifact into the local
// post-processing template. The original request rides along so prompt and
// parameters keep steering the finishing pass.
type DefaultHybridBuilder struct {
	instantiator *templates.Instantiator
}

func NewDefaultHybridBuilder(instantiator *templates.Instantiator) *DefaultHybridBuilder {
	return &DefaultHybridBuilder{instantiator: instantiator}
}

func (b *DefaultHybridBuilder) Build(cloudResult *models.JobResult, request models.GenerationRequest) (*models.WorkflowPayload, error) {
	if cloudResult == nil || len(cloudResult.Outputs) == 0 {
		return nil, ErrNoCloudArtifact
	}

	request.InputArtifact = cloudResult.Outputs[0].URL

	return b.instantiator.Instantiate(PostProcessTemplateID, request)
}
