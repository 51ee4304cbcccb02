package languages

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// Python installs the hook repo and its dependencies into a virtualenv.
type Python struct {
	settings Settings
}

func (*Python) Name() hookconfig.Language { return hookconfig.Python }
func (*Python) SupportsDependency() bool  { return true }

func (*Python) Resolve(_ context.Context, h *hook.Hook) (*hook.ResolvedHook, error) {
	env := envFor(h, "py_env")
	return hook.WithEnv(h, env.Key, env.Path), nil
}

// interpreter picks python3.X for a pinned version, else the configured interpreter.
func (l *Python) interpreter(version string) string {
	if version == "" || version == hookconfig.DefaultVersion {
		return l.settings.Python
	}
	if strings.HasPrefix(version, "python") {
		return version
	}
	return "python" + version
}

func (l *Python) venvCommand(r *hook.ResolvedHook, path string) []string {
	return []string{l.interpreter(r.LanguageVersion), "-m", "venv", path}
}

// installCommands lists the pip invocations that populate the env at path.
func (l *Python) installCommands(r *hook.ResolvedHook, path string) [][]string {
	pip := []string{filepath.Join(binDir(path), pythonExe()), "-m", "pip", "install", "--disable-pip-version-check"}
	var cmds [][]string
	repoPath := r.Repo.Path()
	if r.Repo.Kind() == hookconfig.RemoteKind &&
		(fileExists(filepath.Join(repoPath, "setup.py")) || fileExists(filepath.Join(repoPath, "pyproject.toml"))) {
		cmds = append(cmds, append(append([]string{}, pip...), repoPath))
	}
	if len(r.AdditionalDependencies) > 0 {
		cmds = append(cmds, append(append([]string{}, pip...), r.AdditionalDependencies...))
	}
	return cmds
}

func (l *Python) Install(ctx context.Context, r *hook.ResolvedHook, st Store) error {
	env := envFor(r.Hook, "py_env")
	return st.Provision(ctx, env, func(ctx context.Context, path string) error {
		if err := executeChecked(ctx, ExecuteOptions{Args: l.venvCommand(r, path)}); err != nil {
			return err
		}
		for _, cmd := range l.installCommands(r, path) {
			if err := executeChecked(ctx, ExecuteOptions{Args: cmd, WorkDir: r.Repo.Path(), Env: pythonEnv(path)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Python) CheckHealth(ctx context.Context, r *hook.ResolvedHook) error {
	python := filepath.Join(binDir(r.EnvPath), pythonExe())
	if !fileExists(python) {
		return fmt.Errorf("virtualenv interpreter %s is missing", python)
	}
	return executeChecked(ctx, ExecuteOptions{Args: []string{python, "-c", "import sys"}})
}

func (l *Python) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, append(pythonEnv(r.EnvPath), env...))
}

func pythonEnv(path string) []string {
	return []string{
		"VIRTUAL_ENV=" + path,
		"PYTHONHOME=",
		"PIP_DISABLE_PIP_VERSION_CHECK=1",
		prependPath(binDir(path)),
	}
}

func pythonExe() string {
	if runtime.GOOS == "windows" {
		return "python.exe"
	}
	return "python"
}
