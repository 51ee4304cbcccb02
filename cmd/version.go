package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/prekit/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show prekit version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show Go version and platform")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	info := buildinfo.Current()
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "prekit %s\n", info.Version) //nolint:errcheck // CLI output
	if extended {
		if info.ModuleVersion != "" {
			fmt.Fprintf(out, "Module: %s\n", info.ModuleVersion) //nolint:errcheck // CLI output
		}
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)      //nolint:errcheck // CLI output
		fmt.Fprintf(out, "Platform: %s\n", info.Platform) //nolint:errcheck // CLI output
	}
	return nil
}
