package cmd

import (
	"fmt"

	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/store"
	"github.com/spf13/cobra"
)

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached repo and environment",
		Args:  cobra.NoArgs,
		RunE:  runClean,
	}
}

func runClean(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	dir, err := settings.StoreDir()
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	st, err := store.Open(dir, store.Options{CacheSize: settings.Store.CacheSize})
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	defer func() { _ = st.Close() }()

	repos, err := st.Repos(cmd.Context())
	if err != nil {
		return err
	}
	envs, err := st.Envs(cmd.Context())
	if err != nil {
		return err
	}
	if err := st.Clean(cmd.Context()); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %s (%d repos, %d environments)\n", dir, len(repos), len(envs)) //nolint:errcheck // CLI output
	return nil
}
