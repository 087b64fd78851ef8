package models

// Provider identifies the serving provider behind a model id.
type Provider string

const (
	ProviderVertexAI   Provider = "vertex_ai"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderXAI        Provider = "xai"
	ProviderElevenLabs Provider = "elevenlabs"
	ProviderRunway     Provider = "runway"
	ProviderKling      Provider = "kling"
	ProviderByteDance  Provider = "bytedance"
	ProviderMeshy      Provider = "meshy"
	ProviderSuno       Provider = "suno"
	ProviderLightricks Provider = "lightricks"

	// ProviderFalAI is the default queue provider for models without a
	// dedicated first-party endpoint.
	ProviderFalAI Provider = "fal_ai"
)

func (p Provider) String() string {
	return string(p)
}
