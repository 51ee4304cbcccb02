package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fulmenhq/prekit/internal/runner"
	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/spf13/cobra"
)

// listEntry is one effective hook as printed by `prekit list --json`.
type listEntry struct {
	hookconfig.ManifestHook
	Repo string `json:"repo"`
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective hooks",
		Long: `List every hook the configuration resolves to, after manifest overrides and
project defaults are applied. Remote repos are fetched if they are not cached yet.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	cmd.Flags().Bool("json", false, "Output hooks in JSON format")
	cmd.Flags().String("hook-stage", "", "Only list hooks that run at this stage")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	stageFlag, _ := cmd.Flags().GetString("hook-stage")

	w, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	var hooks []*hook.Hook
	if stageFlag != "" {
		stage, err := hookconfig.ParseStage(stageFlag)
		if err != nil {
			return withExitCode(exitcode.ConfigError, err)
		}
		hooks, err = runner.New(w.project, w.store, w.registry).Select(cmd.Context(), runner.Options{Stage: stage})
		if err != nil {
			return withExitCode(runErrorCode(cmd.Context(), err), err)
		}
	} else {
		hooks, err = w.project.Hooks(cmd.Context(), w.store)
		if err != nil {
			return withExitCode(runErrorCode(cmd.Context(), err), err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		entries := make([]listEntry, 0, len(hooks))
		for _, h := range hooks {
			entries = append(entries, listEntry{ManifestHook: h.ManifestHook, Repo: h.Repo.String()})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANGUAGE\tSTAGES\tREPO") //nolint:errcheck // CLI output
	for _, h := range hooks {
		id := h.ID
		if h.Alias != "" {
			id += " (" + h.Alias + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, h.Language, stagesLabel(h.Stages), h.Repo) //nolint:errcheck // CLI output
	}
	return tw.Flush()
}

func stagesLabel(stages []hookconfig.Stage) string {
	if stages == nil {
		return "all"
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}
