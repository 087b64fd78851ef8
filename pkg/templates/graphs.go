package templates

import "github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"

// Built-in workflow graphs. Graphs are parameterized JSON text in the node
// engine's prompt format: node id -> {class_type, inputs}. Placeholder values
// are substituted as JSON literals, so placeholders stand unquoted even for
// strings.

const graphTextToImage = `{
  "1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": {{.checkpoint}}}},
  "2": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.prompt}}, "clip": ["1", 1]}},
  "3": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.negative_prompt}}, "clip": ["1", 1]}},
  "4": {"class_type": "EmptyLatentImage", "inputs": {"width": {{.width}}, "height": {{.height}}, "batch_size": 1}},
  "5": {"class_type": "KSampler", "inputs": {"seed": {{.seed}}, "steps": {{.steps}}, "cfg": {{.cfg}}, "sampler_name": "euler", "scheduler": "simple", "denoise": 1.0, "model": ["1", 0], "positive": ["2", 0], "negative": ["3", 0], "latent_image": ["4", 0]}},
  "6": {"class_type": "VAEDecode", "inputs": {"samples": ["5", 0], "vae": ["1", 2]}},
  "7": {"class_type": "SaveImage", "inputs": {"images": ["6", 0], "filename_prefix": "cinemaos"}}
}`

const graphTextToVideo = `{
  "1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": {{.checkpoint}}}},
  "2": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.prompt}}, "clip": ["1", 1]}},
  "3": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.negative_prompt}}, "clip": ["1", 1]}},
  "4": {"class_type": "EmptyLatentVideo", "inputs": {"width": {{.width}}, "height": {{.height}}, "length": {{.frames}}, "batch_size": 1}},
  "5": {"class_type": "KSampler", "inputs": {"seed": {{.seed}}, "steps": {{.steps}}, "cfg": {{.cfg}}, "sampler_name": "euler", "scheduler": "simple", "denoise": 1.0, "model": ["1", 0], "positive": ["2", 0], "negative": ["3", 0], "latent_image": ["4", 0]}},
  "6": {"class_type": "VAEDecode", "inputs": {"samples": ["5", 0], "vae": ["1", 2]}},
  "7": {"class_type": "SaveAnimatedWEBP", "inputs": {"images": ["6", 0], "fps": {{.fps}}, "filename_prefix": "cinemaos"}}
}`

const graphInpaint = `{
  "1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": {{.checkpoint}}}},
  "2": {"class_type": "LoadImage", "inputs": {"image": {{.input}}}},
  "3": {"class_type": "LoadImageMask", "inputs": {"image": {{.mask}}, "channel": "alpha"}},
  "4": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.prompt}}, "clip": ["1", 1]}},
  "5": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.negative_prompt}}, "clip": ["1", 1]}},
  "6": {"class_type": "VAEEncodeForInpaint", "inputs": {"pixels": ["2", 0], "mask": ["3", 0], "vae": ["1", 2], "grow_mask_by": 6}},
  "7": {"class_type": "KSampler", "inputs": {"seed": {{.seed}}, "steps": {{.steps}}, "cfg": {{.cfg}}, "sampler_name": "euler", "scheduler": "simple", "denoise": 1.0, "model": ["1", 0], "positive": ["4", 0], "negative": ["5", 0], "latent_image": ["6", 0]}},
  "8": {"class_type": "VAEDecode", "inputs": {"samples": ["7", 0], "vae": ["1", 2]}},
  "9": {"class_type": "SaveImage", "inputs": {"images": ["8", 0], "filename_prefix": "cinemaos-inpaint"}}
}`

const graphUpscale = `{
  "1": {"class_type": "LoadImage", "inputs": {"image": {{.input}}}},
  "2": {"class_type": "UpscaleModelLoader", "inputs": {"model_name": {{.upscale_model}}}},
  "3": {"class_type": "ImageUpscaleWithModel", "inputs": {"upscale_model": ["2", 0], "image": ["1", 0]}},
  "4": {"class_type": "SaveImage", "inputs": {"images": ["3", 0], "filename_prefix": "cinemaos-upscale"}}
}`

const graphTextToSpeech = `{
  "1": {"class_type": "TextToSpeech", "inputs": {"text": {{.prompt}}, "voice": {{.voice}}, "speed": {{.speed}}}},
  "2": {"class_type": "SaveAudio", "inputs": {"audio": ["1", 0], "filename_prefix": "cinemaos-tts"}}
}`

const graphTextToAudio = `{
  "1": {"class_type": "TextToAudio", "inputs": {"text": {{.prompt}}, "seconds": {{.duration}}, "seed": {{.seed}}}},
  "2": {"class_type": "SaveAudio", "inputs": {"audio": ["1", 0], "filename_prefix": "cinemaos-audio"}}
}`

const graphTextTo3D = `{
  "1": {"class_type": "TextTo3D", "inputs": {"prompt": {{.prompt}}, "seed": {{.seed}}, "steps": {{.steps}}}},
  "2": {"class_type": "SaveGLB", "inputs": {"mesh": ["1", 0], "filename_prefix": "cinemaos-mesh"}}
}`

const graphSegmentMask = `{
  "1": {"class_type": "LoadImage", "inputs": {"image": {{.input}}}},
  "2": {"class_type": "SegmentAnything", "inputs": {"image": ["1", 0], "prompt": {{.prompt}}, "threshold": {{.threshold}}}},
  "3": {"class_type": "SaveImage", "inputs": {"images": ["2", 0], "filename_prefix": "cinemaos-mask"}}
}`

// graphGeneric is the fallback for unrecognized task types: a minimal
// text-to-image pass that accepts any prompt.
const graphGeneric = `{
  "1": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": {{.checkpoint}}}},
  "2": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.prompt}}, "clip": ["1", 1]}},
  "3": {"class_type": "CLIPTextEncode", "inputs": {"text": {{.negative_prompt}}, "clip": ["1", 1]}},
  "4": {"class_type": "EmptyLatentImage", "inputs": {"width": {{.width}}, "height": {{.height}}, "batch_size": 1}},
  "5": {"class_type": "KSampler", "inputs": {"seed": {{.seed}}, "steps": {{.steps}}, "cfg": {{.cfg}}, "sampler_name": "euler", "scheduler": "simple", "denoise": 1.0, "model": ["1", 0], "positive": ["2", 0], "negative": ["3", 0], "latent_image": ["4", 0]}},
  "6": {"class_type": "VAEDecode", "inputs": {"samples": ["5", 0], "vae": ["1", 2]}},
  "7": {"class_type": "SaveImage", "inputs": {"images": ["6", 0], "filename_prefix": "cinemaos-generic"}}
}`

// graphPostProcess refines a cloud-produced artifact locally; it is the
// default second stage of hybrid execution.
const graphPostProcess = `{
  "1": {"class_type": "LoadImageFromUrl", "inputs": {"url": {{.input}}}},
  "2": {"class_type": "UpscaleModelLoader", "inputs": {"model_name": {{.upscale_model}}}},
  "3": {"class_type": "ImageUpscaleWithModel", "inputs": {"upscale_model": ["2", 0], "image": ["1", 0]}},
  "4": {"class_type": "SaveImage", "inputs": {"images": ["3", 0], "filename_prefix": "cinemaos-post"}}
}`

func builtinTemplates() []models.WorkflowTemplate {
	return []models.WorkflowTemplate{
		{
			ID: "t2i", Name: "Text to Image",
			Description:     "Single image generation from a text prompt",
			Graph:           graphTextToImage,
			LocalCompatible: true, RequiresCredits: true, EstimatedCost: 2,
			Defaults: map[string]any{
				"checkpoint": "flux2-dev.safetensors",
				"width":      1024, "height": 1024,
				"seed": 0, "steps": 28, "cfg": 4.5,
			},
		},
		{
			ID: "t2v", Name: "Text to Video",
			Description:     "Shot generation from a text prompt",
			Graph:           graphTextToVideo,
			LocalCompatible: false, RequiresCredits: true, EstimatedCost: 25,
			Defaults: map[string]any{
				"checkpoint": "wan2.5-t2v.safetensors",
				"width":      1280, "height": 720,
				"frames": 121, "fps": 24,
				"seed": 0, "steps": 30, "cfg": 5.0,
			},
		},
		{
			ID: "inpaint", Name: "Inpaint",
			Description:     "Masked region regeneration on an existing image",
			Graph:           graphInpaint,
			LocalCompatible: true, RequiresCredits: true, EstimatedCost: 3,
			Defaults: map[string]any{
				"checkpoint": "flux2-fill.safetensors",
				"mask":       "mask.png",
				"seed":       0, "steps": 28, "cfg": 4.5,
			},
		},
		{
			ID: "upscale", Name: "Upscale",
			Description:     "Model-based image upscaling",
			Graph:           graphUpscale,
			LocalCompatible: true, RequiresCredits: false, EstimatedCost: 1,
			Defaults: map[string]any{
				"upscale_model": "RealESRGAN_x2.pth",
			},
		},
		{
			ID: "tts", Name: "Text to Speech",
			Description:     "Voice line synthesis",
			Graph:           graphTextToSpeech,
			LocalCompatible: false, RequiresCredits: true, EstimatedCost: 1,
			Defaults: map[string]any{
				"voice": "narrator", "speed": 1.0,
			},
		},
		{
			ID: "t2a", Name: "Text to Audio",
			Description:     "Music and sound effect generation",
			Graph:           graphTextToAudio,
			LocalCompatible: false, RequiresCredits: true, EstimatedCost: 5,
			Defaults: map[string]any{
				"duration": 10.0, "seed": 0,
			},
		},
		{
			ID: "t23d", Name: "Text to 3D",
			Description:     "Mesh generation from a text prompt",
			Graph:           graphTextTo3D,
			LocalCompatible: false, RequiresCredits: true, EstimatedCost: 10,
			Defaults: map[string]any{
				"seed": 0, "steps": 50,
			},
		},
		{
			ID: "mask", Name: "Segment Mask",
			Description:     "Promptable segmentation mask extraction",
			Graph:           graphSegmentMask,
			LocalCompatible: true, RequiresCredits: false, EstimatedCost: 1,
			Defaults: map[string]any{
				"threshold": 0.3,
			},
		},
		{
			ID: "generic", Name: "Generic",
			Description:     "Fallback graph for unrecognized task types",
			Graph:           graphGeneric,
			LocalCompatible: true, RequiresCredits: false, EstimatedCost: 1,
			Defaults: map[string]any{
				"checkpoint": "flux2-dev.safetensors",
				"width":      1024, "height": 1024,
				"seed": 0, "steps": 20, "cfg": 4.0,
			},
		},
		{
			ID: "post", Name: "Post Process",
			Description:     "Local refinement of a cloud-generated artifact",
			Graph:           graphPostProcess,
			LocalCompatible: true, RequiresCredits: false, EstimatedCost: 1,
			Defaults: map[string]any{
				"upscale_model": "RealESRGAN_x2.pth",
			},
		},
	}
}
