// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

func NewCatalog(version string, tools ...Tool) *ToolCatalog {
	if tools == nil {
		tools = []Tool{}
	}
	return &ToolCatalog{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Tools:       tools,
	}
}

func LoadCatalog(path string) (*ToolCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat ToolCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &cat, nil
}

// SaveCatalog writes the catalog as indented JSON, creating parent
// directories as needed.
func SaveCatalog(cat *ToolCatalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Find returns the tool with the given name.
func (c *ToolCatalog) Find(name string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Validate checks the catalog against its schema, rejects duplicate names
// and compiles every tool's input schema.
func (c *ToolCatalog) Validate() error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewGoLoader(c),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		sort.Strings(errs)
		return fmt.Errorf("catalog does not match schema: %s", strings.Join(errs, "; "))
	}

	seen := make(map[string]bool, len(c.Tools))
	for _, t := range c.Tools {
		if seen[t.Name] {
			return fmt.Errorf("duplicate tool name: %s", t.Name)
		}
		seen[t.Name] = true

		if len(t.InputSchema) == 0 {
			continue
		}
		if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.InputSchema)); err != nil {
			return fmt.Errorf("tool %s has an invalid input schema: %w", t.Name, err)
		}
	}
	return nil
}
