// Package config loads examlens settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/examlens/internal/llm"
)

// Config is the top-level configuration.
type Config struct {
	LLM llm.Config `yaml:"llm"`

	// DBPath overrides the default database location.
	DBPath string `yaml:"db_path"`

	// LogMode is "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	// OutputDir is where `scan` writes diagrams when --out is not given.
	OutputDir string `yaml:"output_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		LogMode: "dev",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/examlens/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if p := os.Getenv("EXAMLENS_CONFIG"); p != "" {
		return p, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "examlens", "config.yaml"), nil
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error. An empty path resolves DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()
	// Models are resolved after the file picks vendors.
	for _, cc := range []*llm.CapabilityConfig{&cfg.LLM.Text, &cfg.LLM.Image, &cfg.LLM.Speech} {
		cc.HighModel, cc.LowModel = "", ""
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file values with EXAMLENS_* variables.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("EXAMLENS_DB"); p != "" {
		c.DBPath = p
	}
	if m := os.Getenv("EXAMLENS_LOG_MODE"); m != "" {
		c.LogMode = m
	}
	c.LLM.ApplyEnv()
}

// Write stores c as YAML at path, creating the directory. API keys are
// never written.
func Write(path string, c Config) error {
	c.LLM.Anthropic.APIKey = ""
	c.LLM.OpenAI.APIKey = ""
	c.LLM.Gemini.APIKey = ""
	c.LLM.OpenRouter.APIKey = ""

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
