// Package runner selects, installs and runs a project's hooks for one git
// stage and reports each outcome.
package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/prekit/pkg/buildinfo"
	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/languages"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/fulmenhq/prekit/pkg/safeio"
	"golang.org/x/sync/errgroup"
)

const (
	skipNoFiles = "(no files to check)"
	skipEnv     = "(skipped by SKIP)"
)

// Store prepares repos and provisions environments.
type Store interface {
	hook.Store
	languages.Store
}

// Options select what one run does.
type Options struct {
	Stage hookconfig.Stage
	// HookIDs limits the run to hooks with these ids or aliases.
	HookIDs []string
	// Skip lists hook ids or aliases reported as skipped without running.
	Skip []string
	// Files is the candidate file list, relative to the project root.
	Files []string
	// Env is passed to every hook process.
	Env     []string
	Verbose bool
	Color   bool
	Output  io.Writer
}

// Result is one hook's outcome.
type Result struct {
	HookID     string        `json:"id"`
	Name       string        `json:"name"`
	Status     Status        `json:"-"`
	StatusText string        `json:"status"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Code       int           `json:"exit_code"`
	Files      int           `json:"files"`
	Duration   time.Duration `json:"duration_ns"`
	Output     []byte        `json:"-"`
	Verbose    bool          `json:"-"`
	LogFile    string        `json:"log_file,omitempty"`
}

// Summary collects every reported result in run order.
type Summary struct {
	Results []Result `json:"results"`
}

// Failed reports whether any hook failed.
func (s Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Status == Failed {
			return true
		}
	}
	return false
}

// Runner executes a project's hooks.
type Runner struct {
	project  *hook.Project
	store    Store
	registry *languages.Registry
}

// New returns a runner for project using st for repos and environments.
func New(project *hook.Project, st Store, registry *languages.Registry) *Runner {
	return &Runner{project: project, store: st, registry: registry}
}

type prepared struct {
	lang     languages.Language
	resolved *hook.ResolvedHook
}

// Select returns the project's hooks that would run for opts, in configuration order.
func (r *Runner) Select(ctx context.Context, opts Options) ([]*hook.Hook, error) {
	cfg := r.project.Config()
	if !buildinfo.Satisfies(cfg.MinimumPrekitVersion) {
		return nil, fmt.Errorf("configuration requires prekit %s or newer, running %s", cfg.MinimumPrekitVersion, buildinfo.BinaryVersion)
	}
	hooks, err := r.project.Hooks(ctx, r.store)
	if err != nil {
		return nil, err
	}
	return selectHooks(hooks, opts.Stage, opts.HookIDs), nil
}

// Run installs and runs the selected hooks. A nonzero hook exit is reported
// in the summary; an error means the run could not proceed.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	hooks, err := r.Select(ctx, opts)
	if err != nil {
		return Summary{}, err
	}
	if len(opts.HookIDs) > 0 && len(hooks) == 0 {
		return Summary{}, fmt.Errorf("no hook with id or alias %s for stage %s", strings.Join(opts.HookIDs, ", "), opts.Stage)
	}

	skip := idSet(opts.Skip)
	var runnable []*hook.Hook
	for _, h := range hooks {
		if !matchesID(h, skip) {
			runnable = append(runnable, h)
		}
	}

	prep, err := r.install(ctx, runnable)
	if err != nil {
		return Summary{}, err
	}

	cfg := r.project.Config()
	top, err := newPathFilter(cfg.Files, cfg.Exclude)
	if err != nil {
		return Summary{}, err
	}
	files := top.apply(opts.Files)
	tags := newTagCache(r.project.Root())

	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	rep := &reporter{w: out, color: opts.Color, verbose: opts.Verbose}

	var summary Summary
	for _, h := range hooks {
		var res Result
		if matchesID(h, skip) {
			res = Result{HookID: h.ID, Name: h.DisplayName(), Status: Skipped, SkipReason: skipEnv}
		} else {
			res = r.runHook(ctx, h, prep[h], files, tags, opts.Env)
		}
		res.StatusText = res.Status.String()
		rep.report(res)
		summary.Results = append(summary.Results, res)

		if res.Status == Failed && cfg.FailFast {
			logger.Debug("fail_fast set, stopping", logger.Hook(h.ID))
			break
		}
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}
	return summary, nil
}

// install resolves and provisions every hook concurrently. Environments
// shared by several hooks are provisioned once by the store.
func (r *Runner) install(ctx context.Context, hooks []*hook.Hook) (map[*hook.Hook]prepared, error) {
	out := make([]prepared, len(hooks))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range hooks {
		g.Go(func() error {
			if !buildinfo.Satisfies(h.MinimumPrekitVersion) {
				return fmt.Errorf("hook %q requires prekit %s or newer", h.ID, h.MinimumPrekitVersion)
			}
			lang, resolved, err := r.registry.Resolve(gctx, h)
			if err != nil {
				return err
			}
			start := time.Now()
			if err := lang.Install(gctx, resolved, r.store); err != nil {
				return fmt.Errorf("hook %q: %w", h.ID, err)
			}
			if resolved.HasEnv() {
				logger.Debug("environment ready", logger.Hook(h.ID), logger.String("env", resolved.EnvPath),
					logger.Duration("elapsed", time.Since(start)))
				if err := lang.CheckHealth(gctx, resolved); err != nil {
					logger.Warn("environment health check failed", logger.Hook(h.ID), logger.Err(err))
				}
			}
			out[i] = prepared{lang: lang, resolved: resolved}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byHook := make(map[*hook.Hook]prepared, len(hooks))
	for i, h := range hooks {
		byHook[h] = out[i]
	}
	return byHook, nil
}

func (r *Runner) runHook(ctx context.Context, h *hook.Hook, p prepared, files []string, tags *tagCache, env []string) Result {
	res := Result{HookID: h.ID, Name: h.DisplayName(), Verbose: h.Verbose, LogFile: h.LogFile}

	filter, err := newPathFilter(h.Files, h.Exclude)
	if err != nil {
		res.Status, res.Output = Failed, []byte(err.Error()+"\n")
		return res
	}
	matched := tags.filterByTypes(filter.apply(files), h.Types, h.TypesOr, h.ExcludeTypes)
	res.Files = len(matched)
	if len(matched) == 0 && !h.AlwaysRun {
		res.Status, res.SkipReason = Skipped, skipNoFiles
		return res
	}

	logger.Debug("running hook", logger.Hook(h.ID), logger.Int("files", len(matched)))
	start := time.Now()
	code, output, err := p.lang.Run(ctx, p.resolved, matched, env, r.store)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status, res.Output = Failed, []byte(err.Error()+"\n")
		return res
	}
	res.Code, res.Output = code, output
	res.Status = Passed
	if code != 0 {
		res.Status = Failed
	}

	if h.LogFile != "" && len(output) > 0 {
		logPath := h.LogFile
		if !filepath.IsAbs(logPath) {
			logPath = filepath.Join(r.project.Root(), filepath.FromSlash(logPath))
		}
		if err := safeio.AppendFile(logPath, output); err != nil {
			logger.Warn("failed to write hook log file", logger.Hook(h.ID), logger.Err(err))
		}
	}
	return res
}

// selectHooks keeps hooks that run at stage and, when ids is non-empty, match one of ids.
func selectHooks(hooks []*hook.Hook, stage hookconfig.Stage, ids []string) []*hook.Hook {
	want := idSet(ids)
	var out []*hook.Hook
	for _, h := range hooks {
		if !h.HasStage(stage) {
			continue
		}
		if len(want) > 0 && !matchesID(h, want) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func matchesID(h *hook.Hook, set map[string]struct{}) bool {
	if _, ok := set[h.ID]; ok {
		return true
	}
	if h.Alias == "" {
		return false
	}
	_, ok := set[h.Alias]
	return ok
}

// ParseSkip splits a SKIP environment value into hook ids.
func ParseSkip(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
