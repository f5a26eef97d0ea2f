// pkg/registry/schema.go
package registry

// TemplateRegistry is an operator-supplied override file for email templates.
// Templates not listed keep their built-in defaults.
type TemplateRegistry struct {
	Version     string               `json:"version"`
	LastUpdated string               `json:"lastUpdated"`
	Templates   []TemplateDefinition `json:"templates"`
}

type TemplateDefinition struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// registrySchema validates override files before any template is parsed, so a
// malformed file is rejected at startup instead of at send time.
const registrySchema = `{
	"type": "object",
	"required": ["version", "templates"],
	"properties": {
		"version": {"type": "string"},
		"lastUpdated": {"type": "string"},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "subject", "html"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"subject": {"type": "string", "minLength": 1},
					"html": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`
