// Package schema validates decoded YAML documents against prekit's embedded JSON schemas.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/prekit/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err folds an invalid result into a single error; valid results return nil.
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

var (
	registryOnce sync.Once
	registry     map[string]*gojsonschema.Schema
	registryErr  error
)

// compile converts every embedded YAML schema to JSON and compiles it once.
func compile() {
	registry = make(map[string]*gojsonschema.Schema)
	for _, name := range assets.SchemaNames() {
		schemaBytes, ok := assets.GetSchema(name)
		if !ok {
			registryErr = fmt.Errorf("schema %s not embedded", name)
			return
		}
		var schemaData interface{}
		if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
			registryErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		jsonBytes, err := json.Marshal(schemaData)
		if err != nil {
			registryErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
		if err != nil {
			registryErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		registry[name] = compiled
	}
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	registryOnce.Do(compile)
	if registryErr != nil {
		return nil, registryErr
	}
	schema, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" || field == "(root)" {
			field = "root"
		}
		res.Errors = append(res.Errors, ValidationError{
			Path:    field,
			Message: verr.Description(),
		})
	}
	return res, nil
}

// ValidateYAML decodes raw YAML and validates it against the named schema.
func ValidateYAML(raw []byte, schemaName string) (*Result, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return Validate(doc, schemaName)
}
