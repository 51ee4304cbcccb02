// Package hook assembles effective hooks from a project configuration and the
// repos it references.
package hook

import (
	"github.com/fulmenhq/prekit/pkg/hookconfig"
)

// Hook is an effective hook: a manifest (or inline) definition overlaid by the
// project's overrides and filled with project defaults.
type Hook struct {
	hookconfig.ManifestHook

	// Repo is the repo the definition came from.
	Repo Repo
	// EnvRepo is the repo prepared with AdditionalDependencies, nil when the hook has none.
	EnvRepo Repo
	// RepoConfig is the configuration entry that produced the hook.
	RepoConfig hookconfig.RepoConfig

	// RepoIndex and HookIndex locate the hook in the configuration file.
	RepoIndex int
	HookIndex int
}

// newHook clones def so the effective hook never aliases the repo's manifest.
func newHook(def hookconfig.ManifestHook, repo Repo, cfg hookconfig.RepoConfig, repoIdx, hookIdx int) *Hook {
	return &Hook{
		ManifestHook: def.Clone(),
		Repo:         repo,
		RepoConfig:   cfg,
		RepoIndex:    repoIdx,
		HookIndex:    hookIdx,
	}
}

// Update overlays every field the override sets. Lists are replaced, never appended.
func (h *Hook) Update(o hookconfig.RemoteHook) {
	setString(&h.Name, o.Name)
	setString(&h.Entry, o.Entry)
	setString(&h.LanguageVersion, o.LanguageVersion)
	setString(&h.Alias, o.Alias)
	setString(&h.Description, o.Description)
	setString(&h.Files, o.Files)
	setString(&h.Exclude, o.Exclude)
	setString(&h.LogFile, o.LogFile)

	setStrings(&h.Types, o.Types)
	setStrings(&h.TypesOr, o.TypesOr)
	setStrings(&h.ExcludeTypes, o.ExcludeTypes)
	setStrings(&h.AdditionalDependencies, o.AdditionalDependencies)
	setStrings(&h.Args, o.Args)
	if o.Stages != nil {
		h.Stages = append(make([]hookconfig.Stage, 0, len(*o.Stages)), *o.Stages...)
	}

	setBool(&h.AlwaysRun, o.AlwaysRun)
	setBool(&h.PassFilenames, o.PassFilenames)
	setBool(&h.RequireSerial, o.RequireSerial)
	setBool(&h.Verbose, o.Verbose)
}

// Fill sets fields that are still unset from project defaults. Running it
// again is a no-op.
func (h *Hook) Fill(cfg *hookconfig.ProjectConfig) {
	if h.LanguageVersion == "" {
		if cfg != nil {
			h.LanguageVersion = cfg.DefaultLanguageVersion[h.Language]
		}
		if h.LanguageVersion == "" {
			h.LanguageVersion = h.Language.DefaultVersion()
		}
	}
	if h.Stages == nil && cfg != nil && cfg.DefaultStages != nil {
		h.Stages = append(make([]hookconfig.Stage, 0, len(cfg.DefaultStages)), cfg.DefaultStages...)
	}
}

// Clone returns an independent copy of the hook.
func (h *Hook) Clone() *Hook {
	c := *h
	c.ManifestHook = h.ManifestHook.Clone()
	return &c
}

// DisplayName is the name shown in run output.
func (h *Hook) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.ID
}

// HasStage reports whether the hook runs at stage. Unset stages mean every stage.
func (h *Hook) HasStage(stage hookconfig.Stage) bool {
	if h.Stages == nil {
		return true
	}
	for _, s := range h.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// EnvRepoOrRepo returns the repo whose directory backs the hook's environment.
func (h *Hook) EnvRepoOrRepo() Repo {
	if h.EnvRepo != nil {
		return h.EnvRepo
	}
	return h.Repo
}

func (h *Hook) String() string {
	return h.ID + " (" + h.Repo.String() + ")"
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setStrings(dst *[]string, v *[]string) {
	if v != nil {
		*dst = append(make([]string, 0, len(*v)), *v...)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ResolvedHook pairs a hook with its environment. An empty EnvPath means the
// hook needs no environment.
type ResolvedHook struct {
	*Hook
	EnvPath string
	// EnvKey identifies the environment in the store; empty with EnvPath.
	EnvKey string
}

// NoEnv resolves a hook that runs without an environment.
func NoEnv(h *Hook) *ResolvedHook {
	return &ResolvedHook{Hook: h}
}

// WithEnv resolves a hook to the environment stored under key at path.
func WithEnv(h *Hook, key, path string) *ResolvedHook {
	return &ResolvedHook{Hook: h, EnvKey: key, EnvPath: path}
}

// HasEnv reports whether the hook runs inside a provisioned environment.
func (r *ResolvedHook) HasEnv() bool {
	return r.EnvPath != ""
}
