package languages

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// Node installs the hook repo and its dependencies as global packages under
// a private npm prefix.
type Node struct {
	settings Settings
}

func (*Node) Name() hookconfig.Language { return hookconfig.Node }
func (*Node) SupportsDependency() bool  { return true }

func (*Node) Resolve(_ context.Context, h *hook.Hook) (*hook.ResolvedHook, error) {
	env := envFor(h, "node_env")
	return hook.WithEnv(h, env.Key, env.Path), nil
}

func (l *Node) installCommand(r *hook.ResolvedHook, path string) []string {
	cmd := []string{l.settings.Npm, "install", "--global", "--no-audit", "--no-fund", "--prefix", path}
	n := len(cmd)
	if r.Repo.Kind() == hookconfig.RemoteKind && fileExists(filepath.Join(r.Repo.Path(), "package.json")) {
		cmd = append(cmd, r.Repo.Path())
	}
	cmd = append(cmd, r.AdditionalDependencies...)
	if len(cmd) == n {
		return nil
	}
	return cmd
}

func (l *Node) Install(ctx context.Context, r *hook.ResolvedHook, st Store) error {
	env := envFor(r.Hook, "node_env")
	return st.Provision(ctx, env, func(ctx context.Context, path string) error {
		cmd := l.installCommand(r, path)
		if cmd == nil {
			return nil
		}
		return executeChecked(ctx, ExecuteOptions{Args: cmd, WorkDir: r.Repo.Path(), Env: nodeEnv(path)})
	})
}

func (l *Node) CheckHealth(ctx context.Context, r *hook.ResolvedHook) error {
	if !fileExists(r.EnvPath) {
		return fmt.Errorf("node environment %s is missing", r.EnvPath)
	}
	return executeChecked(ctx, ExecuteOptions{Args: []string{"node", "--version"}, Env: nodeEnv(r.EnvPath)})
}

func (l *Node) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, append(nodeEnv(r.EnvPath), env...))
}

// nodeBin is where npm links global executables for a prefix.
func nodeBin(prefix string) string {
	if runtime.GOOS == "windows" {
		return prefix
	}
	return filepath.Join(prefix, "bin")
}

func nodeModules(prefix string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(prefix, "node_modules")
	}
	return filepath.Join(prefix, "lib", "node_modules")
}

func nodeEnv(path string) []string {
	return []string{
		"NPM_CONFIG_PREFIX=" + path,
		"npm_config_prefix=" + path,
		"NODE_PATH=" + nodeModules(path),
		prependPath(nodeBin(path)),
	}
}
