// Package config loads the docfs project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docfs/internal/foundation/errors"
)

// Config is the project file. Relative paths are resolved against the folder
// holding the file.
type Config struct {
	// Input is the folder whose files are built.
	Input string `yaml:"input"`
	// Output is the self-contained site folder.
	Output string `yaml:"output"`
	// Manifest is where the build manifest is saved. Defaults to
	// <output>/.docfs/manifest.json.
	Manifest string `yaml:"manifest,omitempty"`
	// Overlays are consulted, in order, for files missing from Input.
	Overlays []string `yaml:"overlays,omitempty"`
	Include  []string `yaml:"include,omitempty"`
	Exclude  []string `yaml:"exclude,omitempty"`

	// Parallelism bounds concurrent copies; zero means the number of CPUs.
	Parallelism int `yaml:"parallelism,omitempty"`

	Stage   StageConfig   `yaml:"stage"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`

	path string
}

// StageConfig controls staged builds: outputs are linked in the manifest
// instead of copied, then dereferenced into Output at the end.
type StageConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir holds files created during a staged build. Empty means a
	// temporary folder removed after the build.
	Dir string `yaml:"dir,omitempty"`
	// Keep preserves Dir after the build.
	Keep bool `yaml:"keep,omitempty"`
}

// CacheConfig controls the incremental build cache.
type CacheConfig struct {
	Enabled   *bool      `yaml:"enabled,omitempty"`
	Scope     CacheScope `yaml:"scope,omitempty"`
	MaxAge    Duration   `yaml:"max_age,omitempty"`
	HighWater int        `yaml:"high_water,omitempty"`
	Retain    int        `yaml:"retain,omitempty"`
}

// IsEnabled reports whether the cache is used; it is on unless disabled.
func (c CacheConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Path is the file the configuration was loaded from, empty for defaults.
func (c *Config) Path() string { return c.path }

// Load reads the project file at configPath. Environment variables from .env
// files next to it (or in the working folder) are loaded first, then
// ${VAR} references in the file are expanded.
func Load(configPath string) (*Config, error) {
	dir := filepath.Dir(configPath)
	if loaded := loadEnvFiles(dir); len(loaded) > 0 {
		slog.Debug("Loaded environment files", slog.Any("files", loaded))
	}

	// #nosec G304 - the project file path is supplied by the user
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load config").
			WithContext("path", configPath).
			Build()
	}
	cfg.path = configPath
	cfg.resolvePaths(dir)
	return cfg, nil
}

// Parse decodes YAML, normalizes enumerations, applies defaults and validates.
// Environment expansion is left to Load.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied and no input.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) || p[0] == '$' || p[0] == '%' {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Input = abs(c.Input)
	c.Output = abs(c.Output)
	c.Manifest = abs(c.Manifest)
	c.Stage.Dir = abs(c.Stage.Dir)
	for i := range c.Overlays {
		c.Overlays[i] = abs(c.Overlays[i])
	}
}

// ManifestPath is the configured manifest location, or the default under Output.
func (c *Config) ManifestPath() string {
	if c.Manifest != "" {
		return c.Manifest
	}
	return filepath.Join(c.Output, ".docfs", "manifest.json")
}

// Init writes an example project file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	enabled := true
	example := Config{
		Input:       "./docs",
		Output:      "./site",
		Overlays:    []string{"./theme"},
		Include:     []string{"**/*"},
		Exclude:     []string{"**/.*"},
		Parallelism: 4,
		Stage:       StageConfig{Enabled: true},
		Cache:       CacheConfig{Enabled: &enabled, Scope: CacheScopeApplication},
		Logging:     LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
