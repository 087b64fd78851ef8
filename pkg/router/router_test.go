package router_test

import (
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/router"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roomyProfile = models.HardwareProfile{AcceleratorMemoryGB: 24, SystemMemoryGB: 64}

func TestLowLatencyTasksAlwaysFastPath(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	lowLatency := []models.TaskType{
		models.TaskChat,
		models.TaskQuickText,
		models.TaskTranslation,
		models.TaskSummarization,
		models.TaskCompletion,
	}

	for _, task := range lowLatency {
		for _, preferLocal := range []bool{true, false} {
			plan := router.Route(task, "gemini-2.5-flash", preferLocal, roomyProfile, cat)

			require.Equal(t, models.PlanFastPath, plan.Kind,
				"task %s prefer_local=%v", task, preferLocal)
			assert.Equal(t, "gemini-2.5-flash", plan.FastPath.ModelID,
				"model id must pass through unchanged")
		}
	}
}

func TestFastPathResolvesProviderForUncataloguedModel(t *testing.T) {
	t.Parallel()

	plan := router.Route(models.TaskChat, "gemini-2.0-flash", false, roomyProfile, catalog.Default())

	require.Equal(t, models.PlanFastPath, plan.Kind)
	assert.Equal(t, models.ProviderVertexAI, plan.FastPath.Provider)
	assert.Equal(t, "gemini-2.0-flash", plan.FastPath.ModelID)
}

func TestWorkflowTemplateMapping(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	tests := []struct {
		task     models.TaskType
		template string
	}{
		{models.TaskImage, "t2i"},
		{models.TaskImageEdit, "inpaint"},
		{models.TaskUpscale, "upscale"},
		{models.TaskVideo, "t2v"},
		{models.TaskVoice, "tts"},
		{models.TaskMusic, "t2a"},
		{models.TaskModel3D, "t23d"},
		{models.TaskSegmentation, "mask"},
		{models.TaskUnknown, router.GenericTemplateID},
	}

	for _, tc := range tests {
		t.Run(string(tc.task), func(t *testing.T) {
			t.Parallel()

			plan := router.Route(tc.task, "flux.2", false, roomyProfile, cat)

			require.Equal(t, models.PlanWorkflow, plan.Kind)
			assert.Equal(t, tc.template, plan.Workflow.TemplateID)
			assert.NotEmpty(t, plan.Workflow.TemplateID)
		})
	}
}

func TestEveryRoutedTemplateExistsInStore(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	store := templates.NewStore()

	tasks := []models.TaskType{
		models.TaskImage, models.TaskImageEdit, models.TaskUpscale,
		models.TaskVideo, models.TaskVoice, models.TaskMusic,
		models.TaskModel3D, models.TaskSegmentation, models.TaskUnknown,
	}

	for _, task := range tasks {
		plan := router.Route(task, "flux.2", false, roomyProfile, cat)
		require.Equal(t, models.PlanWorkflow, plan.Kind)

		_, ok := store.Get(plan.Workflow.TemplateID)
		assert.True(t, ok, "routed template %q for task %s is not in the store",
			plan.Workflow.TemplateID, task)
	}
}

func TestTargetSelection(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	tests := []struct {
		name        string
		task        models.TaskType
		modelID     string
		preferLocal bool
		profile     models.HardwareProfile
		want        models.ExecutionTarget
	}{
		{
			name: "local capable model with local preference",
			task: models.TaskImage, modelID: "z-image-turbo",
			preferLocal: true, profile: roomyProfile,
			want: models.TargetLocal,
		},
		{
			name: "cloud only model with local preference degrades to hybrid",
			task: models.TaskVideo, modelID: "kling-video-2.6",
			preferLocal: true, profile: roomyProfile,
			want: models.TargetHybrid,
		},
		{
			name: "unknown model with local preference degrades to hybrid",
			task: models.TaskImage, modelID: "mystery-model",
			preferLocal: true, profile: roomyProfile,
			want: models.TargetHybrid,
		},
		{
			name: "insufficient accelerator memory degrades to hybrid",
			task: models.TaskImage, modelID: "z-image-turbo",
			preferLocal: true,
			profile:     models.HardwareProfile{AcceleratorMemoryGB: 4, SystemMemoryGB: 16},
			want:        models.TargetHybrid,
		},
		{
			name: "no local preference goes to cloud",
			task: models.TaskImage, modelID: "z-image-turbo",
			preferLocal: false, profile: roomyProfile,
			want: models.TargetCloud,
		},
		{
			name: "unknown task without preference goes to cloud",
			task: models.TaskUnknown, modelID: "mystery-model",
			preferLocal: false, profile: roomyProfile,
			want: models.TargetCloud,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			plan := router.Route(tc.task, tc.modelID, tc.preferLocal, tc.profile, cat)

			require.Equal(t, models.PlanWorkflow, plan.Kind)
			assert.Equal(t, tc.want, plan.Workflow.Target)
		})
	}
}

func TestRouteScenarios(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()

	image := router.Route(models.TaskImage, "z-image-turbo", true, roomyProfile, cat)
	require.Equal(t, models.PlanWorkflow, image.Kind)
	assert.Equal(t, "t2i", image.Workflow.TemplateID)
	assert.Equal(t, models.TargetLocal, image.Workflow.Target)

	video := router.Route(models.TaskVideo, "kling-video-2.6", true, roomyProfile, cat)
	require.Equal(t, models.PlanWorkflow, video.Kind)
	assert.Equal(t, "t2v", video.Workflow.TemplateID)
	assert.Equal(t, models.TargetHybrid, video.Workflow.Target)
}
