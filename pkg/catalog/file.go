package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Models []Entry `yaml:"models"`
}

// LoadFile reads a YAML catalog file and overlays its entries on the
// catalog. Same-id entries replace built-ins.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	if err := c.Merge(file.Models); err != nil {
		return fmt.Errorf("failed to merge catalog file %s: %w", path, err)
	}

	return nil
}
