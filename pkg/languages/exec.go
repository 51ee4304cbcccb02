package languages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/fulmenhq/prekit/pkg/xargs"
	"github.com/mattn/go-shellwords"
)

// ExecuteOptions configures one process invocation.
type ExecuteOptions struct {
	// Args is the full command line; Args[0] is looked up on PATH.
	Args []string
	// WorkDir is the working directory (defaults to the current directory).
	WorkDir string
	// Env holds KEY=VALUE pairs layered over the process environment.
	Env []string
}

// Execute runs a process to completion. A nonzero exit is reported in the
// result; an error means the process could not be started.
func Execute(ctx context.Context, opts ExecuteOptions) (xargs.Result, error) {
	if len(opts.Args) == 0 {
		return xargs.Result{}, errors.New("empty command")
	}
	env := append(os.Environ(), opts.Env...)
	path := findExecutable(opts.Args[0], envValue(env, "PATH"))
	if path == "" {
		return xargs.Result{}, fmt.Errorf("executable %s not found", opts.Args[0])
	}

	// #nosec G204 -- the command comes from the project's hook configuration
	cmd := exec.CommandContext(ctx, path, opts.Args[1:]...)
	cmd.Dir = opts.WorkDir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Trace("exec", logger.Strings("args", opts.Args), logger.String("dir", opts.WorkDir))
	err := cmd.Run()

	result := xargs.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Code = exitErr.ExitCode()
			return result, nil
		}
		return xargs.Result{}, fmt.Errorf("failed to execute %s: %w", opts.Args[0], err)
	}
	return result, nil
}

// executeChecked runs an installation step and turns a nonzero exit into an error.
func executeChecked(ctx context.Context, opts ExecuteOptions) error {
	res, err := Execute(ctx, opts)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		out := strings.TrimSpace(string(append(res.Stdout, res.Stderr...)))
		return fmt.Errorf("%s exited with code %d: %s", strings.Join(opts.Args, " "), res.Code, out)
	}
	return nil
}

// findExecutable resolves name against a PATH value, which may differ from
// this process's PATH when a hook runs inside an environment.
func findExecutable(name, pathEnv string) string {
	if strings.ContainsAny(name, `/\`) {
		if isExecutable(name) {
			return name
		}
		return ""
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		for _, candidate := range executableNames(name) {
			p := filepath.Join(dir, candidate)
			if isExecutable(p) {
				return p
			}
		}
	}
	return ""
}

func executableNames(name string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(name) != "" {
		return []string{name}
	}
	names := []string{name}
	for _, ext := range filepath.SplitList(os.Getenv("PATHEXT")) {
		names = append(names, name+strings.ToLower(ext))
	}
	if len(names) == 1 {
		names = append(names, name+".exe", name+".cmd", name+".bat")
	}
	return names
}

func isExecutable(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode()&0o111 != 0
}

func envValue(env []string, key string) string {
	value := ""
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.EqualFold(k, key) {
			value = v
		}
	}
	return value
}

// prependPath returns a PATH assignment with dirs ahead of the current PATH.
func prependPath(dirs ...string) string {
	parts := append(append([]string{}, dirs...), os.Getenv("PATH"))
	return "PATH=" + strings.Join(parts, string(os.PathListSeparator))
}

// splitEntry tokenizes a hook entry the way a POSIX shell would, without
// expanding variables or running substitutions.
func splitEntry(entry string) ([]string, error) {
	parser := shellwords.NewParser()
	tokens, err := parser.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidEntry, entry, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: entry is empty", ErrInvalidEntry)
	}
	return tokens, nil
}

// hookCommand is the entry tokens followed by the hook's args.
func hookCommand(r *hook.ResolvedHook) ([]string, error) {
	tokens, err := splitEntry(r.Entry)
	if err != nil {
		return nil, err
	}
	return append(tokens, r.Args...), nil
}

// runBatched runs cmd over files through the batched runner.
func (s Settings) runBatched(ctx context.Context, r *hook.ResolvedHook, cmd, files, env []string) (int, []byte, error) {
	opts := xargs.Options{
		Limits:  s.Limits,
		Jobs:    s.Jobs,
		Serial:  r.RequireSerial,
		NoFiles: !r.PassFilenames,
	}
	return xargs.Run(ctx, cmd, files, opts, func(ctx context.Context, batch []string) (xargs.Result, error) {
		args := make([]string, 0, len(cmd)+len(batch))
		args = append(append(args, cmd...), batch...)
		return Execute(ctx, ExecuteOptions{Args: args, WorkDir: s.Root, Env: env})
	})
}

func binDir(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts")
	}
	return filepath.Join(envPath, "bin")
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
