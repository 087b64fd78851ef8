package models_test

import (
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestParseTaskType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want models.TaskType
	}{
		{"chat", models.TaskChat},
		{"quick_text", models.TaskQuickText},
		{"quicktext", models.TaskQuickText},
		{"translation", models.TaskTranslation},
		{"translate", models.TaskTranslation},
		{"summarization", models.TaskSummarization},
		{"summarize", models.TaskSummarization},
		{"completion", models.TaskCompletion},
		{"image", models.TaskImage},
		{"image_edit", models.TaskImageEdit},
		{"inpaint", models.TaskImageEdit},
		{"upscale", models.TaskUpscale},
		{"video", models.TaskVideo},
		{"voice", models.TaskVoice},
		{"tts", models.TaskVoice},
		{"music", models.TaskMusic},
		{"sfx", models.TaskMusic},
		{"model3d", models.TaskModel3D},
		{"3d", models.TaskModel3D},
		{"segmentation", models.TaskSegmentation},
		{"segment", models.TaskSegmentation},
		{"Chat", models.TaskChat},
		{"  video  ", models.TaskVideo},
		{"hologram", models.TaskUnknown},
		{"", models.TaskUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, models.ParseTaskType(tc.raw))
		})
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []models.JobStatus{
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	}
	for _, status := range terminal {
		assert.True(t, status.IsTerminal(), "status %s should be terminal", status)
	}

	active := []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusRouting,
		models.JobStatusSubmitted,
		models.JobStatusRunning,
		models.JobStatusPostProcessing,
	}
	for _, status := range active {
		assert.False(t, status.IsTerminal(), "status %s should not be terminal", status)
	}

	assert.ElementsMatch(t, terminal, models.TerminalStatuses())
}

func TestHardwareProfileSatisfies(t *testing.T) {
	t.Parallel()

	profile := models.HardwareProfile{AcceleratorMemoryGB: 12, SystemMemoryGB: 32}

	assert.True(t, profile.Satisfies(0))
	assert.True(t, profile.Satisfies(-1))
	assert.True(t, profile.Satisfies(12))
	assert.False(t, profile.Satisfies(16))

	none := models.HardwareProfile{SystemMemoryGB: 16}
	assert.True(t, none.Satisfies(0))
	assert.False(t, none.Satisfies(4))
}

func TestExecutionPlanConstructors(t *testing.T) {
	t.Parallel()

	fast := models.NewFastPathPlan(models.ProviderVertexAI, "gemini-2.5-flash")
	assert.Equal(t, models.PlanFastPath, fast.Kind)
	assert.NotNil(t, fast.FastPath)
	assert.Nil(t, fast.Workflow)
	assert.Equal(t, "fast_path provider=vertex_ai model=gemini-2.5-flash", fast.String())

	wf := models.NewWorkflowPlan("t2i", models.TargetLocal)
	assert.Equal(t, models.PlanWorkflow, wf.Kind)
	assert.NotNil(t, wf.Workflow)
	assert.Nil(t, wf.FastPath)
	assert.Equal(t, "workflow template=t2i target=local", wf.String())
}
