package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EXAMLENS_CONFIG", "EXAMLENS_DB", "EXAMLENS_LOG_MODE",
		"EXAMLENS_LLM_PROVIDER", "EXAMLENS_TEXT_PROVIDER", "EXAMLENS_IMAGE_PROVIDER", "EXAMLENS_SPEECH_PROVIDER",
		"EXAMLENS_TEXT_HIGH_MODEL", "EXAMLENS_TEXT_LOW_MODEL", "EXAMLENS_IMAGE_HIGH_MODEL", "EXAMLENS_IMAGE_LOW_MODEL",
		"EXAMLENS_VOICE", "EXAMLENS_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"EXAMLENS_OPENAI_API_KEY", "OPENAI_API_KEY", "EXAMLENS_OPENAI_BASE_URL",
		"EXAMLENS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY", "EXAMLENS_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "gemini", cfg.LLM.Text.Provider)
	assert.Equal(t, "gemini-pro", cfg.LLM.Text.HighModel)
	assert.Equal(t, "gemini-flash-image", cfg.LLM.Image.LowModel)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db_path: /tmp/lens.db
log_mode: prod
llm:
  text:
    provider: openai
    low_model: gpt-4.1-mini
  speech:
    provider: openai
  timeout: 2m
  voice: alloy
  retry:
    max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/lens.db", cfg.DBPath)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, "openai", cfg.LLM.Text.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Text.HighModel, "unset tier takes the vendor default")
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Text.LowModel)
	assert.Equal(t, "gemini", cfg.LLM.Image.Provider)
	assert.Equal(t, "gemini-pro-image", cfg.LLM.Image.HighModel)
	assert.Equal(t, "tts-1", cfg.LLM.Speech.LowModel)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "alloy", cfg.LLM.Voice)
	assert.Equal(t, 5, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.Retry.InitialWait, "unset retry fields keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXAMLENS_DB", "/env/lens.db")
	t.Setenv("EXAMLENS_TEXT_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /file/lens.db\nllm:\n  text:\n    provider: openai\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/env/lens.db", cfg.DBPath)
	assert.Equal(t, "anthropic", cfg.LLM.Text.Provider)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Text.HighModel)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not, a, map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "examlens", "config.yaml"), p)

	t.Setenv("EXAMLENS_CONFIG", "/explicit.yaml")
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/explicit.yaml", p)
}

func TestWriteOmitsKeys(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.LLM.Gemini.APIKey = "secret"
	cfg.DBPath = "/x.db"

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, Write(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/x.db", back.DBPath)
	assert.Empty(t, back.LLM.Gemini.APIKey)
}
