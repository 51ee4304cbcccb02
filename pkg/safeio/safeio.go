// Package safeio holds the file helpers prekit uses on paths that come from
// configuration: contained reads under a repo directory, log-file paths and
// git hook shims.
package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path resolves outside its base directory.
var ErrOutsideBase = errors.New("path is outside base directory")

// CleanUserPath cleans a configured path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	for _, part := range strings.Split(filepath.ToSlash(c), "/") {
		if part == ".." {
			return "", errors.New("path traversal detected")
		}
	}
	return filepath.ToSlash(c), nil
}

// Contained joins name under baseDir and verifies the result stays inside it.
func Contained(baseDir, name string) (string, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseAbs, target)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideBase)
	}
	return targetAbs, nil
}

// ReadFileContained reads name (relative to baseDir, or absolute) only if it
// resolves inside baseDir.
func ReadFileContained(baseDir, name string) ([]byte, error) {
	p, err := Contained(baseDir, name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- p has been verified to be contained within baseDir
	return os.ReadFile(p)
}

// WriteExecutable writes data to path with mode 0755, keeping any extra bits
// the existing file already had.
func WriteExecutable(path string, data []byte) error {
	var mode os.FileMode = 0o755
	if st, err := os.Stat(path); err == nil {
		mode |= st.Mode() & 0o777
	}
	if err := os.WriteFile(path, data, mode); err != nil { // #nosec G306 -- git hooks must be executable
		return err
	}
	return os.Chmod(path, mode)
}

// AppendFile appends data to path, creating parent directories as needed.
func AppendFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- cleaned by CleanUserPath
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
