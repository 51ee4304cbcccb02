package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/prekit/internal/assets"
	"github.com/fulmenhq/prekit/internal/gitctx"
	"github.com/fulmenhq/prekit/pkg/buildinfo"
	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/fulmenhq/prekit/pkg/safeio"
	"github.com/spf13/cobra"
)

// shimID marks hook scripts written by prekit.
const shimID = "prekit-shim-7c1f4e2a"

const backupSuffix = ".backup"

func newInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install git hook shims that run prekit",
		Long: `Write a shim into the repository's hooks directory for each hook type. An existing
hook that prekit did not write is kept next to the shim with a .backup suffix.`,
		Args: cobra.NoArgs,
		RunE: runInstall,
	}
	cmd.Flags().StringSliceP("hook-type", "t", []string{"pre-commit"}, "Git hook types to install")
	cmd.Flags().Bool("allow-missing-config", false, "Let the shim pass when the configuration file is absent")
	return cmd
}

func newUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove prekit's git hook shims",
		Args:  cobra.NoArgs,
		RunE:  runUninstall,
	}
	cmd.Flags().StringSliceP("hook-type", "t", nil, "Git hook types to remove (default all)")
	return cmd
}

// shimParams fill the hook-script template.
type shimParams struct {
	HookType            string
	Stage               hookconfig.Stage
	ConfigPath          string
	Binary              string
	SkipOnMissingConfig bool
}

func renderShim(p shimParams) (string, error) {
	tpl, err := assets.GetTemplate("hook-script.hbs")
	if err != nil {
		return "", err
	}
	return raymond.Render(string(tpl), map[string]interface{}{
		"version":             buildinfo.BinaryVersion,
		"id":                  shimID,
		"hookType":            p.HookType,
		"stage":               string(p.Stage),
		"config":              filepath.ToSlash(p.ConfigPath),
		"binary":              filepath.ToSlash(p.Binary),
		"skipOnMissingConfig": p.SkipOnMissingConfig,
	})
}

// parseHookTypes maps git hook names (pre-commit, commit-msg, ...) to stages.
func parseHookTypes(types []string) ([]hookconfig.Stage, error) {
	stages := make([]hookconfig.Stage, 0, len(types))
	for _, t := range types {
		stage, err := hookconfig.ParseStage(t)
		if err != nil || stage.HookType() == "" {
			return nil, fmt.Errorf("unknown git hook type %q", t)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func isShim(path string) bool {
	data, err := os.ReadFile(path) // #nosec G304 -- path is inside the git hooks directory
	return err == nil && bytes.Contains(data, []byte(shimID))
}

func hooksDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	repo, err := gitctx.Open(wd)
	if err != nil {
		return "", err
	}
	return repo.HooksDir()
}

func runInstall(cmd *cobra.Command, _ []string) error {
	types, _ := cmd.Flags().GetStringSlice("hook-type")
	allowMissing, _ := cmd.Flags().GetBool("allow-missing-config")

	stages, err := parseHookTypes(types)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	dir, err := hooksDir()
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	root, err := projectRoot()
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	binary, err := os.Executable()
	if err != nil {
		return err
	}

	for _, stage := range stages {
		target := filepath.Join(dir, stage.HookType())
		if _, err := os.Stat(target); err == nil && !isShim(target) {
			if err := os.Rename(target, target+backupSuffix); err != nil {
				return withExitCode(exitcode.FileSystemError, fmt.Errorf("failed to back up %s: %w", target, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Existing %s hook moved to %s\n", stage.HookType(), target+backupSuffix) //nolint:errcheck // CLI output
		}

		script, err := renderShim(shimParams{
			HookType:            stage.HookType(),
			Stage:               stage,
			ConfigPath:          configPath(cmd, root),
			Binary:              binary,
			SkipOnMissingConfig: allowMissing,
		})
		if err != nil {
			return err
		}
		if err := safeio.WriteExecutable(target, []byte(script)); err != nil {
			return withExitCode(exitcode.FileSystemError, err)
		}
		logger.Debug("installed hook shim", logger.String("path", target))
		fmt.Fprintf(cmd.OutOrStdout(), "prekit installed at %s\n", target) //nolint:errcheck // CLI output
	}
	return nil
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	types, _ := cmd.Flags().GetStringSlice("hook-type")
	var stages []hookconfig.Stage
	if len(types) == 0 {
		for _, s := range hookconfig.AllStages {
			if s.HookType() != "" {
				stages = append(stages, s)
			}
		}
	} else {
		var err error
		if stages, err = parseHookTypes(types); err != nil {
			return withExitCode(exitcode.ConfigError, err)
		}
	}

	dir, err := hooksDir()
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	for _, stage := range stages {
		target := filepath.Join(dir, stage.HookType())
		if !isShim(target) {
			continue
		}
		if err := os.Remove(target); err != nil {
			return withExitCode(exitcode.FileSystemError, fmt.Errorf("failed to remove %s: %w", target, err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s uninstalled\n", target) //nolint:errcheck // CLI output

		if _, err := os.Stat(target + backupSuffix); err == nil {
			if err := os.Rename(target+backupSuffix, target); err != nil {
				return withExitCode(exitcode.FileSystemError, fmt.Errorf("failed to restore %s: %w", target, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored previous %s hook\n", stage.HookType()) //nolint:errcheck // CLI output
		}
	}
	return nil
}
