package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/prekit/internal/gitctx"
	"github.com/fulmenhq/prekit/internal/runner"
	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/languages"
	"github.com/fulmenhq/prekit/pkg/logger"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [hook-id...] [-- git-hook-args...]",
		Short: "Run hooks against staged files",
		Long: `Run the configured hooks for one stage. By default hooks see the files staged
for commit; --all-files uses every tracked file and --files an explicit list.
Set SKIP=id1,id2 to report hooks as skipped without running them.`,
		RunE: runRun,
	}
	cmd.Flags().BoolP("all-files", "a", false, "Run on every file tracked in the repository")
	cmd.Flags().StringSlice("files", nil, "Run on these files")
	cmd.Flags().String("hook-stage", string(hookconfig.StageCommit), "Stage to run hooks for")
	cmd.Flags().StringSlice("hook", nil, "Run only hooks with this id or alias")
	cmd.Flags().BoolP("verbose", "v", false, "Show output of passing hooks")
	cmd.Flags().Bool("summary-json", false, "Print a JSON summary instead of status lines")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	stageFlag, _ := cmd.Flags().GetString("hook-stage")
	stage, err := hookconfig.ParseStage(stageFlag)
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	allFiles, _ := cmd.Flags().GetBool("all-files")
	explicit, _ := cmd.Flags().GetStringSlice("files")
	hookIDs, _ := cmd.Flags().GetStringSlice("hook")
	verbose, _ := cmd.Flags().GetBool("verbose")
	summaryJSON, _ := cmd.Flags().GetBool("summary-json")

	ids, gitArgs := splitAtDash(cmd, args)
	hookIDs = append(hookIDs, ids...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	files, err := candidateFiles(w.root, stage, allFiles, explicit, gitArgs)
	if err != nil {
		return withExitCode(exitcode.GeneralError, err)
	}
	logger.Debug("collected files", logger.Int("count", len(files)), logger.String("stage", string(stage)))

	opts := runner.Options{
		Stage:   stage,
		HookIDs: hookIDs,
		Skip:    runner.ParseSkip(os.Getenv("SKIP")),
		Files:   files,
		Env:     []string{"PREKIT=1", "PRE_COMMIT=1"},
		Verbose: verbose,
		Color:   colorEnabled(cmd),
		Output:  cmd.OutOrStdout(),
	}
	if summaryJSON {
		opts.Output = nil
	}

	r := runner.New(w.project, w.store, w.registry)
	summary, err := r.Run(ctx, opts)
	if err != nil {
		return withExitCode(runErrorCode(ctx, err), err)
	}

	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	if summary.Failed() {
		return withExitCode(exitcode.HookFailure, errSilent)
	}
	return nil
}

// runErrorCode classifies a run that could not complete.
func runErrorCode(ctx context.Context, err error) int {
	var (
		readErr  *hookconfig.ReadError
		notFound *hook.HookNotFoundError
		depsErr  *hook.DependencyNotSupportedError
	)
	switch {
	case ctx.Err() != nil:
		return exitcode.Interrupted
	case errors.As(err, &readErr), errors.As(err, &notFound), errors.As(err, &depsErr),
		errors.Is(err, languages.ErrUnsupportedLanguage), errors.Is(err, languages.ErrInvalidEntry),
		errors.Is(err, hook.ErrInvalidURL):
		return exitcode.ConfigError
	default:
		return exitcode.InstallError
	}
}

// splitAtDash separates hook ids from the arguments git passed to the hook shim.
func splitAtDash(cmd *cobra.Command, args []string) ([]string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

// candidateFiles picks the file list for a run, relative to root.
func candidateFiles(root string, stage hookconfig.Stage, all bool, explicit, gitArgs []string) ([]string, error) {
	if len(explicit) > 0 {
		return relativeTo(root, explicit)
	}
	if (stage == hookconfig.StageCommitMsg || stage == hookconfig.StagePrepareCommitMsg) && len(gitArgs) > 0 {
		return relativeTo(root, gitArgs[:1])
	}

	repo, err := gitctx.Open(root)
	if err != nil {
		return nil, fmt.Errorf("cannot list files: %w (use --files outside a git repository)", err)
	}
	if all || stage != hookconfig.StageCommit && stage != hookconfig.StageMergeCommit {
		return repo.AllFiles()
	}
	return repo.StagedFiles()
}

func relativeTo(root string, paths []string) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(wd, p)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%s is outside the project root %s", p, root)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}
