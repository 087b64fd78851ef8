package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// Store is an O(1), read-only, in-memory template table. Built-in templates
// are registered at construction; LoadDir may overlay deployment-provided
// templates before the store is handed to the instantiator. Templates are
// never mutated after that point.
type Store struct {
	templates map[string]models.WorkflowTemplate
}

// NewStore returns a store holding the built-in templates.
func NewStore() *Store {
	store := &Store{templates: make(map[string]models.WorkflowTemplate)}

	for _, tpl := range builtinTemplates() {
		store.templates[tpl.ID] = tpl
	}

	return store
}

// Get returns the template for an id.
func (s *Store) Get(id string) (*models.WorkflowTemplate, bool) {
	tpl, ok := s.templates[id]
	if !ok {
		return nil, false
	}

	return &tpl, true
}

// IDs returns all template ids sorted.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// LoadDir overlays every *.yaml template manifest in dir onto the store.
// Same-id templates replace built-ins. Must be called before the store is
// shared; the store itself does no locking.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read templates dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		var tpl models.WorkflowTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", path, err)
		}

		if tpl.ID == "" || tpl.Graph == "" {
			return fmt.Errorf("template file %s: %w: id and graph are required",
				path, ErrTemplateCorrupt)
		}

		s.templates[tpl.ID] = tpl
	}

	return nil
}
