package schema

import (
	"strings"
	"testing"

	"github.com/fulmenhq/prekit/internal/assets"
)

func TestValidateConfig(t *testing.T) {
	valid := `
repos:
  - repo: https://github.com/example/hooks
    rev: v1.0.0
    hooks:
      - id: lint
        args: ["--fix"]
  - repo: local
    hooks:
      - id: shellcheck
        name: shellcheck
        entry: shellcheck
        language: system
default_language_version:
  python: 3.12
default_stages: [commit]
`
	res, err := ValidateYAML([]byte(valid), assets.ConfigSchema)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Fatalf("expected valid config, got errors: %v", res.Errors)
	}
	if res.Err() != nil {
		t.Errorf("Err() on valid result = %v", res.Err())
	}
}

func TestValidateConfigRemoteRequiresRev(t *testing.T) {
	invalid := `
repos:
  - repo: https://github.com/example/hooks
    hooks:
      - id: lint
`
	res, err := ValidateYAML([]byte(invalid), assets.ConfigSchema)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("expected remote repo without rev to be invalid")
	}
	if !strings.Contains(res.Err().Error(), "rev") {
		t.Errorf("expected rev to be named, got %v", res.Err())
	}
}

func TestValidateManifest(t *testing.T) {
	invalid := `
- id: lint
  name: Lint
  language: python
`
	res, err := ValidateYAML([]byte(invalid), assets.ManifestSchema)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected manifest hook without entry to be invalid")
	}

	valid := `
- id: lint
  name: Lint
  entry: lint
  language: python
  types: [python]
`
	res, err = ValidateYAML([]byte(valid), assets.ManifestSchema)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid manifest, got %v", res.Errors)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if _, err := Validate(map[string]interface{}{}, "nonexistent"); err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestValidateYAMLSyntaxError(t *testing.T) {
	if _, err := ValidateYAML([]byte("repos: [\n"), assets.ConfigSchema); err == nil {
		t.Error("expected YAML syntax error")
	}
}
