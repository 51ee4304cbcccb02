package cmd

import (
	"os"
	"path/filepath"

	"github.com/fulmenhq/prekit/internal/gitctx"
	"github.com/fulmenhq/prekit/pkg/config"
	"github.com/fulmenhq/prekit/pkg/exitcode"
	"github.com/fulmenhq/prekit/pkg/hook"
	"github.com/fulmenhq/prekit/pkg/hookconfig"
	"github.com/fulmenhq/prekit/pkg/languages"
	"github.com/fulmenhq/prekit/pkg/store"
	"github.com/spf13/cobra"
)

// workspace bundles what every hook-running command needs.
type workspace struct {
	root       string
	configPath string
	settings   *config.Config
	registry   *languages.Registry
	store      *store.Store
	project    *hook.Project
}

func (w *workspace) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}

func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("settings")
	if path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig()
}

// projectRoot is the enclosing git working tree, or the current directory
// outside a repository.
func projectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if repo, err := gitctx.Open(wd); err == nil {
		return repo.Root(), nil
	}
	return wd, nil
}

func configPath(cmd *cobra.Command, root string) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return filepath.Join(root, hookconfig.ConfigFile)
	}
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path)
		}
	}
	return path
}

// openWorkspace loads settings and the project configuration and opens the store.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, withExitCode(exitcode.ConfigError, err)
	}
	root, err := projectRoot()
	if err != nil {
		return nil, withExitCode(exitcode.FileSystemError, err)
	}
	w := &workspace{
		root:       root,
		configPath: configPath(cmd, root),
		settings:   settings,
		registry:   languages.NewRegistry(languages.SettingsFromConfig(settings, root)),
	}

	w.project, err = hook.LoadProject(root, w.configPath, hook.WithDependencySupport(w.registry.SupportsDependency))
	if err != nil {
		return nil, withExitCode(exitcode.ConfigError, err)
	}

	dir, err := settings.StoreDir()
	if err != nil {
		return nil, withExitCode(exitcode.FileSystemError, err)
	}
	w.store, err = store.Open(dir, store.Options{CacheSize: settings.Store.CacheSize})
	if err != nil {
		return nil, withExitCode(exitcode.FileSystemError, err)
	}
	return w, nil
}

func colorEnabled(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
