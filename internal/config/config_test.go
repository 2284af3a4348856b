package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGlobalPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		got := GlobalPath()
		want := "/custom/config/sitesmith/sitesmith.yml"
		if got != want {
			t.Errorf("GlobalPath() = %v, want %v", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		os.Unsetenv("XDG_CONFIG_HOME")
		got := GlobalPath()
		if !filepath.IsAbs(got) {
			t.Errorf("GlobalPath() should return absolute path, got %v", got)
		}
		if filepath.Base(got) != "sitesmith.yml" {
			t.Errorf("GlobalPath() should end with sitesmith.yml, got %v", got)
		}
	})
}

func TestProjectPath(t *testing.T) {
	got := ProjectPath()
	want := "sitesmith.yml"
	if got != want {
		t.Errorf("ProjectPath() = %v, want %v", got, want)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	t.Run("no config exists", func(t *testing.T) {
		if Exists() {
			t.Error("Exists() = true, want false when no config files exist")
		}
	})

	t.Run("global config exists", func(t *testing.T) {
		globalPath := GlobalPath()
		if err := os.MkdirAll(filepath.Dir(globalPath), 0755); err != nil {
			t.Fatalf("Failed to create global config dir: %v", err)
		}
		if err := os.WriteFile(globalPath, []byte("model: test\n"), 0644); err != nil {
			t.Fatalf("Failed to write global config: %v", err)
		}
		defer func() { _ = os.Remove(globalPath) }()

		if !Exists() {
			t.Error("Exists() = false, want true when global config exists")
		}
	})

	t.Run("project config exists", func(t *testing.T) {
		_ = os.Remove(GlobalPath())

		projectPath := ProjectPath()
		if err := os.WriteFile(projectPath, []byte("model: test\n"), 0644); err != nil {
			t.Fatalf("Failed to write project config: %v", err)
		}
		defer func() { _ = os.Remove(projectPath) }()

		if !Exists() {
			t.Error("Exists() = false, want true when project config exists")
		}
	})
}

func TestWriteGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	cfg := &Config{
		BaseURL:        "https://models.example.com/v1",
		Model:          "test/model",
		PlanModel:      "test/planner",
		MaxBuildRounds: 20,
		MaxFixRounds:   5,
		RequestTimeout: 30,
		DataDir:        ".test",
		LogLevel:       "debug",
		LogFile:        "/tmp/test.log",
		Headless:       true,
	}

	if err := WriteGlobal(cfg); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	globalPath := GlobalPath()
	if _, err := os.Stat(globalPath); err != nil {
		t.Errorf("Config file not created at %s: %v", globalPath, err)
	}

	data, err := os.ReadFile(globalPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	content := string(data)
	expectedFields := []string{
		"base_url: https://models.example.com/v1",
		"model: test/model",
		"plan_model: test/planner",
		"max_build_rounds: 20",
		"max_fix_rounds: 5",
		"data_dir: .test",
		"log_level: debug",
		"log_file: /tmp/test.log",
		"headless: true",
	}

	for _, field := range expectedFields {
		if !strings.Contains(content, field) {
			t.Errorf("Config file missing expected field: %s\nContent:\n%s", field, content)
		}
	}
}

func TestWriteProject(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	cfg := &Config{
		Model:          "project/model",
		MaxBuildRounds: 50,
		MaxFixRounds:   15,
		DataDir:        ".project",
		LogLevel:       "info",
	}

	if err := WriteProject(cfg); err != nil {
		t.Fatalf("WriteProject() error = %v", err)
	}

	projectPath := ProjectPath()
	data, err := os.ReadFile(projectPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	content := string(data)
	expectedFields := []string{
		"model: project/model",
		"max_build_rounds: 50",
		"max_fix_rounds: 15",
		"data_dir: .project",
		"log_level: info",
	}

	for _, field := range expectedFields {
		if !strings.Contains(content, field) {
			t.Errorf("Config file missing expected field: %s\nContent:\n%s", field, content)
		}
	}
}

func TestLoad_NoConfig(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("SITESMITH_MODEL", "")
	os.Unsetenv("SITESMITH_MODEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "" {
		t.Errorf("Load() with no config should have empty model, got %v", cfg.Model)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Load() default BaseURL = %v", cfg.BaseURL)
	}
	if cfg.MaxBuildRounds != 50 {
		t.Errorf("Load() default MaxBuildRounds = %v, want 50", cfg.MaxBuildRounds)
	}
	if cfg.MaxFixRounds != 15 {
		t.Errorf("Load() default MaxFixRounds = %v, want 15", cfg.MaxFixRounds)
	}
	if cfg.RequestTimeout != 600 {
		t.Errorf("Load() default RequestTimeout = %v, want 600", cfg.RequestTimeout)
	}
	if cfg.DeployPollAttempts != 40 {
		t.Errorf("Load() default DeployPollAttempts = %v, want 40", cfg.DeployPollAttempts)
	}
	if cfg.DataDir != ".sitesmith" {
		t.Errorf("Load() default DataDir = %v, want .sitesmith", cfg.DataDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Load() default LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_WithGlobalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("SITESMITH_MODEL", "")
	os.Unsetenv("SITESMITH_MODEL")

	globalCfg := &Config{
		Model:          "global/model",
		MaxBuildRounds: 10,
		MaxFixRounds:   3,
		DataDir:        ".global",
		LogLevel:       "warn",
	}
	if err := WriteGlobal(globalCfg); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != globalCfg.Model {
		t.Errorf("Load() Model = %v, want %v", cfg.Model, globalCfg.Model)
	}
	if cfg.MaxFixRounds != globalCfg.MaxFixRounds {
		t.Errorf("Load() MaxFixRounds = %v, want %v", cfg.MaxFixRounds, globalCfg.MaxFixRounds)
	}
	if cfg.DataDir != globalCfg.DataDir {
		t.Errorf("Load() DataDir = %v, want %v", cfg.DataDir, globalCfg.DataDir)
	}
	if cfg.LogLevel != globalCfg.LogLevel {
		t.Errorf("Load() LogLevel = %v, want %v", cfg.LogLevel, globalCfg.LogLevel)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(origWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))

	if err := WriteGlobal(&Config{Model: "file/model", MaxFixRounds: 15}); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	t.Setenv("SITESMITH_MODEL", "env/model")
	t.Setenv("SITESMITH_MAX_FIX_ROUNDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "env/model" {
		t.Errorf("env var should override file, got Model = %v", cfg.Model)
	}
	if cfg.MaxFixRounds != 7 {
		t.Errorf("env var should override file, got MaxFixRounds = %v", cfg.MaxFixRounds)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config with model",
			config: &Config{
				Model:          "gpt-4o",
				MaxBuildRounds: 50,
				MaxFixRounds:   15,
			},
			wantErr: false,
		},
		{
			name: "invalid config with empty model",
			config: &Config{
				MaxBuildRounds: 50,
				MaxFixRounds:   15,
			},
			wantErr: true,
		},
		{
			name: "invalid zero fix cap",
			config: &Config{
				Model:          "gpt-4o",
				MaxBuildRounds: 50,
				MaxFixRounds:   0,
			},
			wantErr: true,
		},
		{
			name: "invalid zero build cap",
			config: &Config{
				Model:        "gpt-4o",
				MaxFixRounds: 15,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelFallbacks(t *testing.T) {
	cfg := &Config{Model: "gpt-4o"}
	if got := cfg.PlanModelName(); got != "gpt-4o" {
		t.Errorf("PlanModelName() fallback = %v, want gpt-4o", got)
	}
	if got := cfg.FixModelName(); got != "gpt-4o" {
		t.Errorf("FixModelName() fallback = %v, want gpt-4o", got)
	}

	cfg.PlanModel = "gpt-4o-mini"
	cfg.FixModel = "o3-mini"
	if got := cfg.PlanModelName(); got != "gpt-4o-mini" {
		t.Errorf("PlanModelName() = %v, want gpt-4o-mini", got)
	}
	if got := cfg.FixModelName(); got != "o3-mini" {
		t.Errorf("FixModelName() = %v, want o3-mini", got)
	}
}
