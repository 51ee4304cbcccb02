package languages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"

	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// Docker builds the hook repo's Dockerfile once and runs the entry inside
// the resulting image with the project mounted.
type Docker struct {
	settings Settings
}

func (*Docker) Name() hookconfig.Language { return hookconfig.Docker }
func (*Docker) SupportsDependency() bool  { return false }

func (*Docker) Resolve(_ context.Context, h *hook.Hook) (*hook.ResolvedHook, error) {
	env := envFor(h, "docker")
	return hook.WithEnv(h, env.Key, env.Path), nil
}

// imageTag names the image built for a repo checkout.
func imageTag(repoPath string) string {
	sum := sha256.Sum256([]byte(repoPath))
	return "prekit-" + hex.EncodeToString(sum[:])[:16]
}

func (l *Docker) buildCommand(r *hook.ResolvedHook) []string {
	return []string{l.settings.Docker, "build", "--tag", imageTag(r.Repo.Path()), "--label", "prekit", "."}
}

func (l *Docker) Install(ctx context.Context, r *hook.ResolvedHook, st Store) error {
	env := envFor(r.Hook, "docker")
	return st.Provision(ctx, env, func(ctx context.Context, _ string) error {
		return executeChecked(ctx, ExecuteOptions{Args: l.buildCommand(r), WorkDir: r.Repo.Path()})
	})
}

func (l *Docker) CheckHealth(ctx context.Context, r *hook.ResolvedHook) error {
	return executeChecked(ctx, ExecuteOptions{
		Args: []string{l.settings.Docker, "image", "inspect", "--format", "{{.Id}}", imageTag(r.Repo.Path())},
	})
}

func (l *Docker) runCommand(r *hook.ResolvedHook) ([]string, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return nil, err
	}
	args := l.settings.dockerRun()
	args = append(args, "--entrypoint", cmd[0], imageTag(r.Repo.Path()))
	return append(args, cmd[1:]...), nil
}

func (l *Docker) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := l.runCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, env)
}

// DockerImage runs the entry, which names an existing image, with the
// project mounted. Nothing is installed.
type DockerImage struct {
	noEnv
	settings Settings
}

func (*DockerImage) Name() hookconfig.Language { return hookconfig.DockerImage }

func (l *DockerImage) runCommand(r *hook.ResolvedHook) ([]string, error) {
	cmd, err := hookCommand(r)
	if err != nil {
		return nil, err
	}
	return append(l.settings.dockerRun(), cmd...), nil
}

func (l *DockerImage) Run(ctx context.Context, r *hook.ResolvedHook, filenames []string, env []string, _ Store) (int, []byte, error) {
	cmd, err := l.runCommand(r)
	if err != nil {
		return 0, nil, err
	}
	return l.settings.runBatched(ctx, r, cmd, filenames, env)
}

// dockerRun is the shared `docker run` prefix: the project root mounted
// read-write at the mount target, which is also the working directory.
func (s Settings) dockerRun() []string {
	target := s.MountTarget
	if target == "" {
		target = "/src"
	}
	args := []string{
		s.Docker, "run", "--rm",
		"--volume", s.Root + ":" + target + ":rw,Z",
		"--workdir", target,
	}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		args = append(args, "--user", strconv.Itoa(uid)+":"+strconv.Itoa(gid))
	}
	return args
}
