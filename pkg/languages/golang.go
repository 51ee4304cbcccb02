package languages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// Golang builds the hook repo's commands and any extra modules into a
// private GOBIN.
type Golang struct {
	settings Settings
}

func (*Golang) Name() hookconfig.Language { return hookconfig.Golang }
func (*Golang) SupportsDependency() bool  { return true }

func (*Golang) Resolve(_ context.Context, h *hook.Hook) (*hook.ResolvedHook, error) {
	env := envFor(h, "golangenv")
	return hook.WithEnv(h, env.Key, env.Path), nil
}

// installCommands lists the go install invocations, each with its working directory.
func (l *Golang) installCommands(r *hook.ResolvedHook) [][]string {
	var cmds [][]string
	if r.Repo.Kind() == hookconfig.RemoteKind && fileExists(filepath.Join(r.Repo.Path(), "go.mod")) {
		cmds = append(cmds, []string{l.settings.Go, "install", "./..."})
	}
	for _, dep := range r.AdditionalDependencies {
		if !strings.Contains(dep, "@") {
			dep += "@latest"
		}
		cmds = append(cmds, []string{l.settings.Go, "install", dep})
	}
	return cmds
}

func (l *Golang) Install(ctx context.Context, r *hook.ResolvedHook, st Store) error {
	env := envFor(r.Hook, "golangenv")
	return st.Provision(ctx, env, func(ctx context.Context, path string) error {
		goEnv := golangEnv(path)
		for _, cmd := range l.installCommands(r) {
			if err := executeChecked(ctx, ExecuteOptions{Args: cmd, WorkDir: r.Repo.Path(), Env: goEnv}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Golang) CheckHealth(_ context.Context, r *hook.ResolvedHook) error {
	if !fileExists(filepath.Join(r.EnvPath, "bin")) && len(l.installCommands(r)) > 0 {
		return fmt.Errorf("go environment %s has no bin directory", r.EnvPath)
	}
	return nil
}

func (l *Golang) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, append(golangEnv(r.EnvPath), env...))
}

func golangEnv(path string) []string {
	bin := filepath.Join(path, "bin")
	return []string{
		"GOBIN=" + bin,
		prependPath(bin),
	}
}
