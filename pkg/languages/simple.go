package languages

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// System runs the entry from the host PATH.
type System struct {
	noEnv
	settings Settings
}

func (*System) Name() hookconfig.Language { return hookconfig.System }

func (l *System) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, env)
}

// Script runs an executable shipped inside the hook repo. For local hooks
// the script path is relative to the project root.
type Script struct {
	noEnv
	settings Settings
}

func (*Script) Name() hookconfig.Language { return hookconfig.Script }

func (l *Script) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return 0, nil, err
	}
	cmd[0] = l.scriptPath(r, cmd[0])
	return l.settings.runBatched(ctx, r, cmd, filenames, env)
}

func (l *Script) scriptPath(r *hook.ResolvedHook, script string) string {
	if filepath.IsAbs(script) {
		return script
	}
	base := r.Repo.Path()
	if r.Repo.Kind() == hookconfig.LocalKind {
		base = l.settings.Root
	}
	return filepath.Join(base, filepath.FromSlash(script))
}

// Fail always fails, printing the entry as the message followed by the files.
type Fail struct {
	noEnv
}

func (*Fail) Name() hookconfig.Language { return hookconfig.Fail }

func (*Fail) Run(_ context.Context, r *hook.ResolvedHook, filenames []string, _ []string, _ Store) (int, []byte, error) {
	var b strings.Builder
	b.WriteString(r.Entry)
	b.WriteString("\n\n")
	for _, f := range filenames {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	return 1, []byte(b.String()), nil
}
