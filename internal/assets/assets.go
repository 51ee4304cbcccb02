// Package assets embeds the JSON schemas and templates shipped inside the prekit binary.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_templates
var Templates embed.FS

//go:embed embedded_schemas
var Schemas embed.FS

// Known schema names mapped to their embedded paths.
const (
	ConfigSchema   = "pre-commit-config"
	ManifestSchema = "pre-commit-hooks"
)

var schemaPaths = map[string]string{
	ConfigSchema:   "embedded_schemas/pre-commit-config.yaml",
	ManifestSchema: "embedded_schemas/pre-commit-hooks.yaml",
}

// SchemaNames returns the names accepted by GetSchema.
func SchemaNames() []string {
	return []string{ConfigSchema, ManifestSchema}
}

// GetSchema returns the embedded YAML schema for name.
func GetSchema(name string) ([]byte, bool) {
	p, ok := schemaPaths[name]
	if !ok {
		return nil, false
	}
	data, err := Schemas.ReadFile(p)
	return data, err == nil
}

// GetTemplate returns an embedded template by file name (e.g., "hook-script.hbs").
func GetTemplate(name string) ([]byte, error) {
	return fs.ReadFile(Templates, "embedded_templates/"+name)
}
