package templates

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// Instantiator renders a template into a concrete, validated workflow
// payload. Substitution is textual, so the rendered text is always re-parsed
// and schema-checked before a payload is returned; a graph that fails either
// step never reaches a driver.
//
// Instantiation is deterministic: identical template and request yield a
// structurally identical payload on every call.
type Instantiator struct {
	store  *Store
	logger *slog.Logger
}

func NewInstantiator(store *Store, logger *slog.Logger) *Instantiator {
	return &Instantiator{
		store:  store,
		logger: logger.With("module", "templates"),
	}
}

// Instantiate substitutes request parameters into the template's graph text
// and validates the result. Unknown ids yield ErrTemplateNotFound; any
// render, re-parse or schema failure yields ErrTemplateCorrupt. Both are
// non-retryable.
func (i *Instantiator) Instantiate(templateID string, req models.GenerationRequest) (*models.WorkflowPayload, error) {
	tpl, ok := i.store.Get(templateID)
	if !ok {
		return nil, &TemplateError{Op: "Instantiate", TemplateID: templateID, Err: ErrTemplateNotFound}
	}

	data, err := substitutionData(tpl, req)
	if err != nil {
		return nil, &TemplateError{
			Op: "Instantiate", TemplateID: templateID,
			Err: fmt.Errorf("%w: %v", ErrTemplateCorrupt, err),
		}
	}

	graph, err := renderGraph(tpl.Graph, data)
	if err != nil {
		return nil, &TemplateError{
			Op: "Instantiate", TemplateID: templateID,
			Err: fmt.Errorf("%w: %v", ErrTemplateCorrupt, err),
		}
	}

	if err := validateGraph(graph); err != nil {
		return nil, &TemplateError{Op: "Instantiate", TemplateID: templateID, Err: err}
	}

	i.logger.Debug("Template instantiated", "template_id", templateID, "nodes", len(graph))

	return &models.WorkflowPayload{TemplateID: tpl.ID, Graph: graph}, nil
}

// substitutionData builds the placeholder values: template defaults first,
// then caller params, then the typed request fields, which always win. Every
// value is JSON-encoded so substituted content can never break the
// surrounding graph text.
func substitutionData(tpl *models.WorkflowTemplate, req models.GenerationRequest) (map[string]any, error) {
	values := make(map[string]any, len(tpl.Defaults)+len(req.Params)+8)

	for key, value := range tpl.Defaults {
		values[key] = value
	}

	for key, value := range req.Params {
		values[key] = value
	}

	values["prompt"] = req.Prompt
	values["negative_prompt"] = req.NegativePrompt

	if req.Width > 0 {
		values["width"] = req.Width
	}

	if req.Height > 0 {
		values["height"] = req.Height
	}

	if req.DurationSeconds > 0 {
		values["duration"] = req.DurationSeconds
	}

	if req.Seed != nil {
		values["seed"] = *req.Seed
	}

	if req.InputArtifact != "" {
		values["input"] = req.InputArtifact
	}

	encoded := make(map[string]any, len(values))

	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode placeholder %q: %w", key, err)
		}

		encoded[key] = string(raw)
	}

	return encoded, nil
}

// renderGraph substitutes placeholders and re-parses the result. Re-parsing
// is mandatory: textual substitution gives no structural guarantees.
func renderGraph(graphText string, data map[string]any) (map[string]any, error) {
	tmpl, err := template.New("graph").Option("missingkey=error").Parse(graphText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph text: %w", err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to substitute placeholders: %w", err)
	}

	var graph map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &graph); err != nil {
		return nil, fmt.Errorf("substituted graph is not valid JSON: %w", err)
	}

	return graph, nil
}
