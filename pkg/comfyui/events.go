package comfyui

import (
	"encoding/json"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// wsMessage is the envelope every engine event arrives in. Data stays raw
// until the type is known.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type progressData struct {
	Value    float64 `json:"value"`
	Max      float64 `json:"max"`
	PromptID string  `json:"prompt_id"`
	Node     string  `json:"node"`
}

// fraction normalizes progress into [0,1]. Engines report value/max pairs
// where max can be zero while a node is warming up.
func (p progressData) fraction() float64 {
	if p.Max <= 0 {
		return 0
	}

	return p.Value / p.Max
}

type executedData struct {
	Node     string                     `json:"node"`
	PromptID string                     `json:"prompt_id"`
	Output   map[string]json.RawMessage `json:"output"`
}

type executionErrorData struct {
	PromptID         string   `json:"prompt_id"`
	NodeID           string   `json:"node_id"`
	NodeType         string   `json:"node_type"`
	ExceptionType    string   `json:"exception_type"`
	ExceptionMessage string   `json:"exception_message"`
	Traceback        []string `json:"traceback"`
}

type completionData struct {
	PromptID string `json:"prompt_id"`
}

type queueResponse struct {
	PromptID   string         `json:"prompt_id"`
	Number     int            `json:"number"`
	NodeErrors map[string]any `json:"node_errors"`
}

// fileRef is one saved file inside an executed node's output collection.
type fileRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// artifactCollections lists the engine's output collection names with their
// artifact kinds, in the order artifacts are reported. Collections not
// listed here stay in the raw result but produce no artifact entries.
var artifactCollections = []struct {
	name string
	kind models.ArtifactKind
}{
	{"images", models.ArtifactImage},
	{"gifs", models.ArtifactVideo},
	{"videos", models.ArtifactVideo},
	{"audio", models.ArtifactAudio},
	{"meshes", models.ArtifactModel3D},
	{"masks", models.ArtifactMask},
	{"text", models.ArtifactText},
}

// collectArtifacts turns one node's output collections into artifacts with
// resolvable view URLs.
func (c *Client) collectArtifacts(nodeID string, output map[string]json.RawMessage) []models.Artifact {
	var artifacts []models.Artifact

	for _, collection := range artifactCollections {
		raw, ok := output[collection.name]
		if !ok {
			continue
		}

		var refs []fileRef

		if err := json.Unmarshal(raw, &refs); err != nil {
			continue
		}

		for _, ref := range refs {
			if ref.Filename == "" {
				continue
			}

			artifacts = append(artifacts, models.Artifact{
				Name:   ref.Filename,
				URL:    c.ViewURL(ref.Filename, ref.Subfolder, ref.Type),
				Kind:   collection.kind,
				NodeID: nodeID,
			})
		}
	}

	return artifacts
}
