package catalog

import "github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"

// Default returns the built-in catalog. Deployments typically start from
// this and overlay a YAML file for additions or endpoint pins.
func Default() *Catalog {
	catalog, err := New(defaultEntries())
	if err != nil {
		// Built-in entries are validated by tests; a failure here is a
		// programming error.
		panic(err)
	}

	return catalog
}

func defaultEntries() []Entry {
	return []Entry{
		{
			ID: "gemini-3-pro", Name: "Gemini 3 Pro",
			Provider:     models.ProviderVertexAI,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion, models.TaskSummarization, models.TaskTranslation},
		},
		{
			ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash",
			Provider:     models.ProviderVertexAI,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskQuickText, models.TaskSummarization, models.TaskTranslation},
		},
		{
			ID: "gemma-3", Name: "Gemma 3",
			Provider: models.ProviderVertexAI, LocalCapable: true, MinAcceleratorMemoryGB: 12,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion},
		},
		{
			ID: "gemma-3n", Name: "Gemma 3n",
			Provider: models.ProviderVertexAI, LocalCapable: true, MinAcceleratorMemoryGB: 4,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskQuickText},
		},
		{
			ID: "gemini-nano", Name: "Gemini Nano",
			Provider: models.ProviderVertexAI, LocalCapable: true, MinAcceleratorMemoryGB: 2,
			Capabilities: []models.TaskType{models.TaskQuickText, models.TaskSummarization},
		},
		{
			ID: "paligemma-2", Name: "PaliGemma 2",
			Provider: models.ProviderVertexAI, LocalCapable: true, MinAcceleratorMemoryGB: 8,
			Capabilities: []models.TaskType{models.TaskSegmentation},
		},
		{
			ID: "gpt-5.1", Name: "GPT-5.1",
			Provider:     models.ProviderOpenAI,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion},
		},
		{
			ID: "gpt-oss-120b", Name: "GPT-OSS 120B",
			Provider:     models.ProviderOpenAI,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion},
		},
		{
			ID: "gpt-oss-20b", Name: "GPT-OSS 20B",
			Provider: models.ProviderOpenAI, LocalCapable: true, MinAcceleratorMemoryGB: 16,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion},
		},
		{
			ID: "claude-opus-4.5", Name: "Claude Opus 4.5",
			Provider:     models.ProviderAnthropic,
			Capabilities: []models.TaskType{models.TaskChat, models.TaskCompletion, models.TaskSummarization},
		},
		{
			ID: "grok-3", Name: "Grok 3",
			Provider:     models.ProviderXAI,
			Capabilities: []models.TaskType{models.TaskChat},
		},
		{
			ID: "flux.2", Name: "FLUX.2",
			Provider: models.ProviderFalAI, Endpoint: "fal-ai/flux-2",
			Capabilities: []models.TaskType{models.TaskImage},
		},
		{
			ID: "flux-1.1-pro", Name: "FLUX 1.1 Pro",
			Provider: models.ProviderFalAI, Endpoint: "fal-ai/flux-pro/v1.1",
			Capabilities: []models.TaskType{models.TaskImage},
		},
		{
			ID: "z-image-turbo", Name: "Z-Image Turbo",
			Provider: models.ProviderFalAI, Endpoint: "fal-ai/z-image/turbo",
			LocalCapable: true, MinAcceleratorMemoryGB: 8,
			Capabilities: []models.TaskType{models.TaskImage},
		},
		{
			ID: "kling-o1", Name: "Kling O1",
			Provider: models.ProviderKling, Endpoint: "fal-ai/kling-video/o1/text-to-video",
			Capabilities: []models.TaskType{models.TaskVideo},
		},
		{
			ID: "kling-video-2.6", Name: "Kling Video 2.6",
			Provider: models.ProviderKling, Endpoint: "fal-ai/kling-video/v2.6/pro/text-to-video",
			Capabilities: []models.TaskType{models.TaskVideo},
		},
		{
			ID: "veo-3.1", Name: "Veo 3.1",
			Provider:     models.ProviderVertexAI,
			Capabilities: []models.TaskType{models.TaskVideo},
		},
		{
			ID: "imagen-4", Name: "Imagen 4",
			Provider:     models.ProviderVertexAI,
			Capabilities: []models.TaskType{models.TaskImage},
		},
		{
			ID: "sora-2-pro", Name: "Sora 2 Pro",
			Provider:     models.ProviderOpenAI,
			Capabilities: []models.TaskType{models.TaskVideo},
		},
		{
			ID: "wan-2.5-i2v", Name: "Wan 2.5 I2V",
			Provider: models.ProviderFalAI, Endpoint: "fal-ai/wan-25-preview/image-to-video",
			Capabilities: []models.TaskType{models.TaskVideo},
		},
		{
			ID: "elevenlabs-v3", Name: "ElevenLabs v3",
			Provider: models.ProviderElevenLabs, Endpoint: "fal-ai/elevenlabs/tts/eleven-v3",
			Capabilities: []models.TaskType{models.TaskVoice},
		},
		{
			ID: "suno-v4", Name: "Suno v4",
			Provider:     models.ProviderSuno,
			Capabilities: []models.TaskType{models.TaskMusic},
		},
		{
			ID: "lyria-2", Name: "Lyria 2",
			Provider:     models.ProviderVertexAI,
			Capabilities: []models.TaskType{models.TaskMusic},
		},
		{
			ID: "meshy-4", Name: "Meshy 4",
			Provider: models.ProviderMeshy, Endpoint: "fal-ai/meshy/v4/text-to-3d",
			Capabilities: []models.TaskType{models.TaskModel3D},
		},
		{
			ID: "sam-3", Name: "SAM 3",
			Provider: models.ProviderFalAI, Endpoint: "fal-ai/sam-3",
			LocalCapable: true, MinAcceleratorMemoryGB: 6,
			Capabilities: []models.TaskType{models.TaskSegmentation},
		},
	}
}
