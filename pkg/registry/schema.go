// pkg/registry/schema.go
package registry

// ToolCatalog is the exported description of every action the agent can run.
type ToolCatalog struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Tools       []Tool `json:"tools"`
}

type Tool struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category,omitempty"`
	RequiredParams []string               `json:"requiredParams"`
	OptionalParams []string               `json:"optionalParams"`
	InputSchema    map[string]interface{} `json:"inputSchema,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
}

// catalogSchema is the JSON schema every catalog file must satisfy.
const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "lastUpdated", "tools"],
  "properties": {
    "version": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+$"},
    "lastUpdated": {"type": "string", "format": "date-time"},
    "tools": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "description", "requiredParams", "optionalParams"],
        "properties": {
          "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "description": {"type": "string", "minLength": 1},
          "category": {"type": "string"},
          "requiredParams": {"type": "array", "items": {"type": "string"}},
          "optionalParams": {"type": "array", "items": {"type": "string"}},
          "inputSchema": {"type": "object"},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
