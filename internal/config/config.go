// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for sitesmith.
type Config struct {
	// Model access (OpenAI-compatible chat completions endpoint)
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model     string `mapstructure:"model" yaml:"model"`
	PlanModel string `mapstructure:"plan_model" yaml:"plan_model,omitempty"`
	FixModel  string `mapstructure:"fix_model" yaml:"fix_model,omitempty"`

	// Loop bounds and timing
	MaxBuildRounds int `mapstructure:"max_build_rounds" yaml:"max_build_rounds"`
	MaxFixRounds   int `mapstructure:"max_fix_rounds" yaml:"max_fix_rounds"`
	RequestTimeout int `mapstructure:"request_timeout" yaml:"request_timeout"` // seconds

	// Deployment provider
	DeployEndpoint     string `mapstructure:"deploy_endpoint" yaml:"deploy_endpoint,omitempty"`
	DeployToken        string `mapstructure:"deploy_token" yaml:"deploy_token,omitempty"`
	DeployPollAttempts int    `mapstructure:"deploy_poll_attempts" yaml:"deploy_poll_attempts"`
	DeployPollInterval int    `mapstructure:"deploy_poll_interval" yaml:"deploy_poll_interval"` // seconds

	// Runtime
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file,omitempty"`
	Headless bool   `mapstructure:"headless" yaml:"headless"`
}

// envKeys lists every config key bound to a SITESMITH_* environment variable.
// Bound explicitly rather than relying on AutomaticEnv alone so bool/int
// values parse correctly.
var envKeys = []string{
	"base_url",
	"api_key",
	"model",
	"plan_model",
	"fix_model",
	"max_build_rounds",
	"max_fix_rounds",
	"request_timeout",
	"deploy_endpoint",
	"deploy_token",
	"deploy_poll_attempts",
	"deploy_poll_interval",
	"data_dir",
	"log_level",
	"log_file",
	"headless",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("sitesmith")

	// Set defaults (model has no default - it's required)
	v.SetDefault("base_url", "https://api.openai.com/v1")
	v.SetDefault("api_key", "")
	v.SetDefault("plan_model", "")
	v.SetDefault("fix_model", "")
	v.SetDefault("max_build_rounds", 50)
	v.SetDefault("max_fix_rounds", 15)
	v.SetDefault("request_timeout", 600)
	v.SetDefault("deploy_endpoint", "")
	v.SetDefault("deploy_token", "")
	v.SetDefault("deploy_poll_attempts", 40)
	v.SetDefault("deploy_poll_interval", 3)
	v.SetDefault("data_dir", ".sitesmith")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("headless", false)

	// Setup ENV binding with SITESMITH_ prefix
	v.SetEnvPrefix("SITESMITH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	for _, key := range envKeys {
		if err := v.BindEnv(key, "SITESMITH_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required (set in config or SITESMITH_MODEL)")
	}
	if c.MaxFixRounds < 1 {
		return fmt.Errorf("max_fix_rounds must be at least 1, got %d", c.MaxFixRounds)
	}
	if c.MaxBuildRounds < 1 {
		return fmt.Errorf("max_build_rounds must be at least 1, got %d", c.MaxBuildRounds)
	}
	return nil
}

// PlanModelName returns the model used for the plan stage, falling back to
// the default model when no dedicated one is configured.
func (c *Config) PlanModelName() string {
	if c.PlanModel != "" {
		return c.PlanModel
	}
	return c.Model
}

// FixModelName returns the model used for auto-fix rounds.
func (c *Config) FixModelName() string {
	if c.FixModel != "" {
		return c.FixModel
	}
	return c.Model
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/sitesmith/sitesmith.yml or $XDG_CONFIG_HOME/sitesmith/sitesmith.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitesmith", "sitesmith.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sitesmith", "sitesmith.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./sitesmith.yml in the current working directory.
func ProjectPath() string {
	return "sitesmith.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	path := ProjectPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
