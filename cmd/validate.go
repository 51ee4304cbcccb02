package cmd

import (
	"fmt"

	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/spf13/cobra"
)

func newValidateConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [file...]",
		Short: "Validate project hook configuration files",
		Long:  "Check each file against the configuration schema and decode it. Defaults to " + hookconfig.ConfigFile + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFiles(cmd, args, hookconfig.ConfigFile, func(p string) error {
				_, err := hookconfig.ReadConfig(p)
				return err
			})
		},
	}
}

func newValidateManifestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-manifest [file...]",
		Short: "Validate hook repository manifests",
		Long:  "Check each file against the manifest schema and decode it. Defaults to " + hookconfig.ManifestFile + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateFiles(cmd, args, hookconfig.ManifestFile, func(p string) error {
				_, err := hookconfig.ReadManifest(p)
				return err
			})
		},
	}
}

func validateFiles(cmd *cobra.Command, files []string, fallback string, check func(string) error) error {
	if len(files) == 0 {
		files = []string{fallback}
	}
	out := cmd.OutOrStdout()
	failed := 0
	for _, f := range files {
		if err := check(f); err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", f, err) //nolint:errcheck // CLI output
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", f) //nolint:errcheck // CLI output
	}
	if failed > 0 {
		return withExitCode(exitcode.ValidationError, errSilent)
	}
	return nil
}
