package hookconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/prekit/internal/assets"
	"github.com/fulmenhq/prekit/internal/schema"
	"github.com/fulmenhq/prekit/pkg/safeio"
	"gopkg.in/yaml.v3"
)

// ReadError reports a configuration or manifest file that could not be read,
// validated or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ReadConfig loads and validates a project configuration file.
func ReadConfig(path string) (*ProjectConfig, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path chosen by the user via --config
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return cfg, nil
}

// ParseConfig validates and decodes configuration bytes.
func ParseConfig(raw []byte) (*ProjectConfig, error) {
	if err := validate(raw, assets.ConfigSchema); err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadManifest loads and validates a hook repository manifest.
func ReadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is joined under a store-owned repo dir
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return m, nil
}

// ReadRepoManifest reads the manifest at the root of a prepared repo directory,
// refusing anything that resolves outside it.
func ReadRepoManifest(repoDir string) (*Manifest, error) {
	path := filepath.Join(repoDir, ManifestFile)
	raw, err := safeio.ReadFileContained(repoDir, ManifestFile)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return m, nil
}

// ParseManifest validates and decodes manifest bytes.
func ParseManifest(raw []byte) (*Manifest, error) {
	if err := validate(raw, assets.ManifestSchema); err != nil {
		return nil, err
	}
	var hooks []ManifestHook
	if err := decode(raw, &hooks); err != nil {
		return nil, err
	}
	return &Manifest{Hooks: hooks}, nil
}

func validate(raw []byte, schemaName string) error {
	res, err := schema.ValidateYAML(raw, schemaName)
	if err != nil {
		return err
	}
	return res.Err()
}

func decode(raw []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	return nil
}
