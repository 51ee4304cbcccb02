// Package hookconfig holds the records decoded from a project's
// .pre-commit-config.yaml and a hook repository's .pre-commit-hooks.yaml.
package hookconfig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFile is the project configuration file name.
	ConfigFile = ".pre-commit-config.yaml"
	// ManifestFile is the hook repository manifest file name.
	ManifestFile = ".pre-commit-hooks.yaml"

	// LocalRepo and MetaRepo are the reserved values of the `repo` key.
	LocalRepo = "local"
	MetaRepo  = "meta"

	// DefaultVersion is the language_version sentinel meaning "whatever the toolchain provides".
	DefaultVersion = "default"
)

// Language names the toolchain a hook runs under.
type Language string

const (
	Conda       Language = "conda"
	Coursier    Language = "coursier"
	Dart        Language = "dart"
	Docker      Language = "docker"
	DockerImage Language = "docker_image"
	Dotnet      Language = "dotnet"
	Fail        Language = "fail"
	Golang      Language = "golang"
	Haskell     Language = "haskell"
	Lua         Language = "lua"
	Node        Language = "node"
	Perl        Language = "perl"
	Pygrep      Language = "pygrep"
	Python      Language = "python"
	R           Language = "r"
	Ruby        Language = "ruby"
	Rust        Language = "rust"
	Script      Language = "script"
	Swift       Language = "swift"
	System      Language = "system"
)

var knownLanguages = map[Language]bool{
	Conda: true, Coursier: true, Dart: true, Docker: true, DockerImage: true,
	Dotnet: true, Fail: true, Golang: true, Haskell: true, Lua: true, Node: true,
	Perl: true, Pygrep: true, Python: true, R: true, Ruby: true, Rust: true,
	Script: true, Swift: true, System: true,
}

// ParseLanguage validates a language name.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.TrimSpace(s))
	if !knownLanguages[l] {
		return "", fmt.Errorf("unknown language %q", s)
	}
	return l, nil
}

// DefaultVersion is the language's built-in version used when nothing else is configured.
func (l Language) DefaultVersion() string {
	return DefaultVersion
}

func (l *Language) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLanguage(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = parsed
	return nil
}

// Stage is a point in the git workflow at which a hook may run.
type Stage string

const (
	StageCommit           Stage = "commit"
	StageMergeCommit      Stage = "merge-commit"
	StagePush             Stage = "push"
	StagePrepareCommitMsg Stage = "prepare-commit-msg"
	StageCommitMsg        Stage = "commit-msg"
	StagePostCheckout     Stage = "post-checkout"
	StagePostCommit       Stage = "post-commit"
	StagePostMerge        Stage = "post-merge"
	StagePostRewrite      Stage = "post-rewrite"
	StagePreRebase        Stage = "pre-rebase"
	StageManual           Stage = "manual"
)

// AllStages lists every stage in workflow order.
var AllStages = []Stage{
	StageCommit, StageMergeCommit, StagePush, StagePrepareCommitMsg, StageCommitMsg,
	StagePostCheckout, StagePostCommit, StagePostMerge, StagePostRewrite, StagePreRebase,
	StageManual,
}

var stageAliases = map[string]Stage{
	"pre-commit":       StageCommit,
	"pre-merge-commit": StageMergeCommit,
	"pre-push":         StagePush,
}

// ParseStage accepts stage names and the git hook names that map onto them.
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if st, ok := stageAliases[s]; ok {
		return st, nil
	}
	for _, st := range AllStages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// HookType returns the git hook name that triggers the stage, or "" for manual.
func (s Stage) HookType() string {
	switch s {
	case StageCommit:
		return "pre-commit"
	case StageMergeCommit:
		return "pre-merge-commit"
	case StagePush:
		return "pre-push"
	case StageManual:
		return ""
	default:
		return string(s)
	}
}

func (s *Stage) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStage(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// ManifestHook is a hook as declared by a repository's manifest.
// A nil Stages or empty LanguageVersion means "unset" and is filled from project defaults.
type ManifestHook struct {
	ID                     string   `yaml:"id" json:"id"`
	Name                   string   `yaml:"name" json:"name"`
	Entry                  string   `yaml:"entry" json:"entry"`
	Language               Language `yaml:"language" json:"language"`
	LanguageVersion        string   `yaml:"language_version,omitempty" json:"language_version,omitempty"`
	Alias                  string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Description            string   `yaml:"description,omitempty" json:"description,omitempty"`
	Files                  string   `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude                string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Types                  []string `yaml:"types,omitempty" json:"types,omitempty"`
	TypesOr                []string `yaml:"types_or,omitempty" json:"types_or,omitempty"`
	ExcludeTypes           []string `yaml:"exclude_types,omitempty" json:"exclude_types,omitempty"`
	AdditionalDependencies []string `yaml:"additional_dependencies,omitempty" json:"additional_dependencies,omitempty"`
	Args                   []string `yaml:"args,omitempty" json:"args,omitempty"`
	Stages                 []Stage  `yaml:"stages,omitempty" json:"stages,omitempty"`
	AlwaysRun              bool     `yaml:"always_run,omitempty" json:"always_run,omitempty"`
	PassFilenames          bool     `yaml:"pass_filenames" json:"pass_filenames"`
	RequireSerial          bool     `yaml:"require_serial,omitempty" json:"require_serial,omitempty"`
	Verbose                bool     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	LogFile                string   `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	MinimumPrekitVersion   string   `yaml:"minimum_prekit_version,omitempty" json:"minimum_prekit_version,omitempty"`
}

// UnmarshalYAML applies manifest defaults (pass_filenames: true, types: [file])
// before decoding so absent keys keep them.
func (h *ManifestHook) UnmarshalYAML(node *yaml.Node) error {
	type plain ManifestHook
	p := plain{
		PassFilenames: true,
		Types:         []string{"file"},
	}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*h = ManifestHook(p)
	return nil
}

// Clone returns a deep copy so effective hooks never share slices with the manifest.
func (h ManifestHook) Clone() ManifestHook {
	c := h
	c.Types = cloneStrings(h.Types)
	c.TypesOr = cloneStrings(h.TypesOr)
	c.ExcludeTypes = cloneStrings(h.ExcludeTypes)
	c.AdditionalDependencies = cloneStrings(h.AdditionalDependencies)
	c.Args = cloneStrings(h.Args)
	if h.Stages != nil {
		c.Stages = append(make([]Stage, 0, len(h.Stages)), h.Stages...)
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// LocalHook is a complete hook definition declared inline under `repo: local`.
type LocalHook = ManifestHook

// RemoteHook is a project-level reference to a manifest hook. Every field other
// than ID is optional; a non-nil field overrides the manifest value.
type RemoteHook struct {
	ID                     string    `yaml:"id" json:"id"`
	Name                   *string   `yaml:"name,omitempty" json:"name,omitempty"`
	Entry                  *string   `yaml:"entry,omitempty" json:"entry,omitempty"`
	LanguageVersion        *string   `yaml:"language_version,omitempty" json:"language_version,omitempty"`
	Alias                  *string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Description            *string   `yaml:"description,omitempty" json:"description,omitempty"`
	Files                  *string   `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude                *string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Types                  *[]string `yaml:"types,omitempty" json:"types,omitempty"`
	TypesOr                *[]string `yaml:"types_or,omitempty" json:"types_or,omitempty"`
	ExcludeTypes           *[]string `yaml:"exclude_types,omitempty" json:"exclude_types,omitempty"`
	AdditionalDependencies *[]string `yaml:"additional_dependencies,omitempty" json:"additional_dependencies,omitempty"`
	Args                   *[]string `yaml:"args,omitempty" json:"args,omitempty"`
	Stages                 *[]Stage  `yaml:"stages,omitempty" json:"stages,omitempty"`
	AlwaysRun              *bool     `yaml:"always_run,omitempty" json:"always_run,omitempty"`
	PassFilenames          *bool     `yaml:"pass_filenames,omitempty" json:"pass_filenames,omitempty"`
	RequireSerial          *bool     `yaml:"require_serial,omitempty" json:"require_serial,omitempty"`
	Verbose                *bool     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	LogFile                *string   `yaml:"log_file,omitempty" json:"log_file,omitempty"`
}

// MetaHook references a built-in meta hook by id.
type MetaHook struct {
	ID string `yaml:"id" json:"id"`
}

// RepoKind distinguishes the three repo entry shapes.
type RepoKind int

const (
	RemoteKind RepoKind = iota
	LocalKind
	MetaKind
)

func (k RepoKind) String() string {
	switch k {
	case LocalKind:
		return LocalRepo
	case MetaKind:
		return MetaRepo
	default:
		return "remote"
	}
}

// RepoConfig is one entry of the project's `repos` list. Exactly one of
// Hooks, LocalHooks or MetaHooks is populated, selected by the `repo` value.
type RepoConfig struct {
	Repo       string
	Rev        string
	Hooks      []RemoteHook
	LocalHooks []LocalHook
	MetaHooks  []MetaHook
}

// Kind reports which repo shape the entry has.
func (r RepoConfig) Kind() RepoKind {
	switch r.Repo {
	case LocalRepo:
		return LocalKind
	case MetaRepo:
		return MetaKind
	default:
		return RemoteKind
	}
}

// HookIDs lists the ids referenced by the entry, in configuration order.
func (r RepoConfig) HookIDs() []string {
	var ids []string
	switch r.Kind() {
	case LocalKind:
		for _, h := range r.LocalHooks {
			ids = append(ids, h.ID)
		}
	case MetaKind:
		for _, h := range r.MetaHooks {
			ids = append(ids, h.ID)
		}
	default:
		for _, h := range r.Hooks {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

func (r RepoConfig) String() string {
	if r.Kind() == RemoteKind {
		return r.Repo + "@" + r.Rev
	}
	return r.Repo
}

type repoWire struct {
	Repo  string    `yaml:"repo"`
	Rev   string    `yaml:"rev"`
	Hooks yaml.Node `yaml:"hooks"`
}

func (r *RepoConfig) UnmarshalYAML(node *yaml.Node) error {
	var w repoWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*r = RepoConfig{Repo: w.Repo, Rev: w.Rev}
	if w.Hooks.Kind == 0 {
		return nil
	}
	switch r.Kind() {
	case LocalKind:
		return w.Hooks.Decode(&r.LocalHooks)
	case MetaKind:
		return w.Hooks.Decode(&r.MetaHooks)
	default:
		return w.Hooks.Decode(&r.Hooks)
	}
}

func (r RepoConfig) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{"repo": r.Repo}
	switch r.Kind() {
	case LocalKind:
		out["hooks"] = r.LocalHooks
	case MetaKind:
		out["hooks"] = r.MetaHooks
	default:
		out["rev"] = r.Rev
		out["hooks"] = r.Hooks
	}
	return out, nil
}

// ProjectConfig is the decoded .pre-commit-config.yaml.
type ProjectConfig struct {
	Repos                  []RepoConfig        `yaml:"repos"`
	DefaultLanguageVersion map[Language]string `yaml:"default_language_version,omitempty"`
	DefaultStages          []Stage             `yaml:"default_stages,omitempty"`
	Files                  string              `yaml:"files,omitempty"`
	Exclude                string              `yaml:"exclude,omitempty"`
	FailFast               bool                `yaml:"fail_fast,omitempty"`
	MinimumPrekitVersion   string              `yaml:"minimum_prekit_version,omitempty"`
}

// Manifest is the decoded .pre-commit-hooks.yaml: an ordered hook list.
type Manifest struct {
	Hooks []ManifestHook
}
