package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/fulmenhq/prekit/pkg/buildinfo"
	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// newRootCommand creates a fresh root command instance so tests get
// isolated command trees.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prekit",
		Short: "Git hook runner for multi-language projects",
		Long: `prekit runs the hooks declared in .pre-commit-config.yaml, installing each
hook's toolchain environment on first use and batching file lists across processes.

Examples:
   prekit install            # Install the git hook shims
   prekit run                # Run hooks against staged files
   prekit run --all-files    # Run hooks against every tracked file
   prekit list --json        # Show the effective hooks`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "warn", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to the project hook configuration (default .pre-commit-config.yaml)")
	cmd.PersistentFlags().String("settings", "", "Path to a prekit settings file (default prekit.yaml lookup)")

	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("prekit {{.Version}}\n")

	registerSubcommands(cmd)
	return cmd
}

// normalizeFlagName accepts underscores in long flag names (--hook_stage).
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(
		newRunCommand(),
		newListCommand(),
		newInstallCommand(),
		newUninstallCommand(),
		newValidateConfigCommand(),
		newValidateManifestCommand(),
		newCleanCommand(),
		newVersionCommand(),
	)
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitcode.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != errSilent {
			logger.Error("command failed", logger.Err(ee.err))
		}
		return ee.code
	}
	logger.Error("command failed", logger.Err(err))
	return exitcode.GeneralError
}

// errSilent marks a failure already reported on stdout.
var errSilent = errors.New("failed")

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "prekit",
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
