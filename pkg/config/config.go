// Package config loads prekit's own settings (store location, batching limits,
// toolchain binaries) from defaults, prekit.yaml files and PREKIT_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for prekit
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Batch  BatchConfig  `mapstructure:"batch"`
	Docker DockerConfig `mapstructure:"docker"`
	Python PythonConfig `mapstructure:"python"`
	Node   NodeConfig   `mapstructure:"node"`
	Golang GolangConfig `mapstructure:"golang"`
}

// StoreConfig controls the repository and environment cache.
type StoreConfig struct {
	// Dir is the store root. Empty means $PREKIT_HOME/store.
	Dir string `mapstructure:"dir"`
	// CacheSize bounds the number of loaded repos kept in memory per process.
	CacheSize int `mapstructure:"cache_size"`
}

// BatchConfig bounds a single hook process invocation.
type BatchConfig struct {
	// MaxLength is the command-line length budget in bytes. 0 selects the platform default.
	MaxLength int `mapstructure:"max_length"`
	// MaxArgs caps filenames per invocation. 0 means unlimited.
	MaxArgs int `mapstructure:"max_args"`
	// Jobs bounds concurrent invocations of one hook. 0 means runtime.NumCPU().
	Jobs int `mapstructure:"jobs"`
}

// DockerConfig configures the docker and docker_image languages.
type DockerConfig struct {
	Binary string `mapstructure:"binary"`
	// MountTarget is where the project root is mounted inside the container.
	MountTarget string `mapstructure:"mount_target"`
}

// PythonConfig configures the python language.
type PythonConfig struct {
	Interpreter string `mapstructure:"interpreter"`
}

// NodeConfig configures the node language.
type NodeConfig struct {
	Npm string `mapstructure:"npm"`
}

// GolangConfig configures the golang language.
type GolangConfig struct {
	Go string `mapstructure:"go"`
}

var defaultConfig = Config{
	Store: StoreConfig{
		CacheSize: 64,
	},
	Batch: BatchConfig{},
	Docker: DockerConfig{
		Binary:      "docker",
		MountTarget: "/src",
	},
	Python: PythonConfig{Interpreter: defaultPython()},
	Node:   NodeConfig{Npm: "npm"},
	Golang: GolangConfig{Go: "go"},
}

func defaultPython() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	c := defaultConfig
	return &c
}

// LoadConfig loads configuration from defaults, prekit.yaml and the environment.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

// LoadConfigFile loads configuration with an explicit settings file layered over the defaults.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("store.dir", defaultConfig.Store.Dir)
	v.SetDefault("store.cache_size", defaultConfig.Store.CacheSize)
	v.SetDefault("batch.max_length", defaultConfig.Batch.MaxLength)
	v.SetDefault("batch.max_args", defaultConfig.Batch.MaxArgs)
	v.SetDefault("batch.jobs", defaultConfig.Batch.Jobs)
	v.SetDefault("docker.binary", defaultConfig.Docker.Binary)
	v.SetDefault("docker.mount_target", defaultConfig.Docker.MountTarget)
	v.SetDefault("python.interpreter", defaultConfig.Python.Interpreter)
	v.SetDefault("node.npm", defaultConfig.Node.Npm)
	v.SetDefault("golang.go", defaultConfig.Golang.Go)

	explicit := v.ConfigFileUsed() != ""
	if !explicit {
		v.SetConfigName("prekit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if home, err := GetPrekitHome(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("PREKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing optional file keeps the defaults; an explicit file must exist and parse.
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading settings: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if config.Store.CacheSize <= 0 {
		config.Store.CacheSize = defaultConfig.Store.CacheSize
	}
	return &config, nil
}

// StoreDir returns the configured store directory, falling back to $PREKIT_HOME/store.
func (c *Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	home, err := GetPrekitHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "store"), nil
}

// GetPrekitHome returns the prekit home directory
func GetPrekitHome() (string, error) {
	if home := os.Getenv("PREKIT_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".prekit"), nil
}

// EnsurePrekitHome creates the prekit home directory if it doesn't exist
func EnsurePrekitHome() (string, error) {
	homeDir, err := GetPrekitHome()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create prekit home directory: %w", err)
	}

	return homeDir, nil
}
