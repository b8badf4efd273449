package llm

import (
	"fmt"
	"os"
	"time"
)

// Tier is a quality/cost level of a capability.
type Tier string

const (
	TierHigh Tier = "high"
	TierLow  Tier = "low"
)

// Capability names one of the three gateway surfaces.
type Capability string

const (
	CapabilityText   Capability = "text"
	CapabilityImage  Capability = "image"
	CapabilitySpeech Capability = "speech"
)

// Config holds all gateway configuration.
type Config struct {
	// Text, Image and Speech select a vendor and a model per tier for each
	// capability. Empty models fall back to the vendor defaults.
	Text   CapabilityConfig `yaml:"text"`
	Image  CapabilityConfig `yaml:"image"`
	Speech CapabilityConfig `yaml:"speech"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Voice is the prebuilt voice name used for speech synthesis. Empty
	// picks the speech vendor's default voice.
	Voice string `yaml:"voice"`

	// Timeout is the maximum duration for a single gateway call
	// (including retries). Default: 90s; image generation is slow.
	Timeout time.Duration `yaml:"timeout"`
}

// CapabilityConfig picks the vendor and tiered models for one capability.
// Values for Provider: "gemini", "openai", "anthropic", "openrouter", "mock".
type CapabilityConfig struct {
	Provider  string `yaml:"provider"`
	HighModel string `yaml:"high_model"`
	LowModel  string `yaml:"low_model"`
}

// Model returns the configured model for a tier.
func (c CapabilityConfig) Model(t Tier) string {
	if t == TierLow {
		return c.LowModel
	}
	return c.HighModel
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// defaultModels lists {high, low} models per capability and vendor.
var defaultModels = map[Capability]map[string][2]string{
	CapabilityText: {
		"gemini":     {"gemini-pro", "gemini-flash"},
		"openai":     {"gpt-4o", "gpt-4o-mini"},
		"anthropic":  {"claude-sonnet", "claude-haiku"},
		"openrouter": {"google/gemini-2.5-pro", "google/gemini-2.5-flash"},
		"mock":       {"mock", "mock"},
	},
	CapabilityImage: {
		"gemini": {"gemini-pro-image", "gemini-flash-image"},
		"openai": {"gpt-image-1", "dall-e-3"},
		"mock":   {"mock", "mock"},
	},
	CapabilitySpeech: {
		"gemini": {"gemini-pro-tts", "gemini-flash-tts"},
		"openai": {"gpt-4o-mini-tts", "tts-1"},
		"mock":   {"mock", "mock"},
	},
}

// DefaultConfig returns a Config with sensible defaults: Gemini for every
// capability.
func DefaultConfig() Config {
	cfg := Config{
		Text:   CapabilityConfig{Provider: "gemini"},
		Image:  CapabilityConfig{Provider: "gemini"},
		Speech: CapabilityConfig{Provider: "gemini"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 90 * time.Second,
	}
	cfg.ApplyModelDefaults()
	return cfg
}

// ApplyModelDefaults fills empty tier models from the vendor defaults.
func (c *Config) ApplyModelDefaults() {
	fill := func(cap Capability, cc *CapabilityConfig) {
		models, ok := defaultModels[cap][cc.Provider]
		if !ok {
			return
		}
		if cc.HighModel == "" {
			cc.HighModel = models[0]
		}
		if cc.LowModel == "" {
			cc.LowModel = models[1]
		}
	}
	fill(CapabilityText, &c.Text)
	fill(CapabilityImage, &c.Image)
	fill(CapabilitySpeech, &c.Speech)
}

// ApplyEnv overrides fields from EXAMLENS_* environment variables, then
// fills missing API keys from the vendors' standard variables.
func (c *Config) ApplyEnv() {
	setProvider := func(env string, cc *CapabilityConfig) {
		if p := os.Getenv(env); p != "" && p != cc.Provider {
			cc.Provider = p
			cc.HighModel, cc.LowModel = "", ""
		}
	}
	if p := os.Getenv("EXAMLENS_LLM_PROVIDER"); p != "" {
		for _, cc := range []*CapabilityConfig{&c.Text, &c.Image, &c.Speech} {
			if p != cc.Provider {
				cc.Provider = p
				cc.HighModel, cc.LowModel = "", ""
			}
		}
	}
	setProvider("EXAMLENS_TEXT_PROVIDER", &c.Text)
	setProvider("EXAMLENS_IMAGE_PROVIDER", &c.Image)
	setProvider("EXAMLENS_SPEECH_PROVIDER", &c.Speech)

	if m := os.Getenv("EXAMLENS_TEXT_HIGH_MODEL"); m != "" {
		c.Text.HighModel = m
	}
	if m := os.Getenv("EXAMLENS_TEXT_LOW_MODEL"); m != "" {
		c.Text.LowModel = m
	}
	if m := os.Getenv("EXAMLENS_IMAGE_HIGH_MODEL"); m != "" {
		c.Image.HighModel = m
	}
	if m := os.Getenv("EXAMLENS_IMAGE_LOW_MODEL"); m != "" {
		c.Image.LowModel = m
	}
	if v := os.Getenv("EXAMLENS_VOICE"); v != "" {
		c.Voice = v
	}

	firstEnv := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	firstEnv(&c.Gemini.APIKey, "EXAMLENS_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	firstEnv(&c.OpenAI.APIKey, "EXAMLENS_OPENAI_API_KEY", "OPENAI_API_KEY")
	firstEnv(&c.OpenAI.BaseURL, "EXAMLENS_OPENAI_BASE_URL")
	firstEnv(&c.Anthropic.APIKey, "EXAMLENS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	firstEnv(&c.OpenRouter.APIKey, "EXAMLENS_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	c.ApplyModelDefaults()
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// Validate checks that every capability names a known vendor that supports
// it and that the vendor's API key is set.
func (c Config) Validate() error {
	checks := []struct {
		cap Capability
		cc  CapabilityConfig
	}{
		{CapabilityText, c.Text},
		{CapabilityImage, c.Image},
		{CapabilitySpeech, c.Speech},
	}
	for _, ch := range checks {
		if _, ok := defaultModels[ch.cap][ch.cc.Provider]; !ok {
			return fmt.Errorf("%s: provider %q does not support this capability", ch.cap, ch.cc.Provider)
		}
		if err := c.checkKey(ch.cc.Provider); err != nil {
			return fmt.Errorf("%s: %w", ch.cap, err)
		}
	}
	return nil
}

func (c Config) checkKey(provider string) error {
	switch provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("EXAMLENS_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("EXAMLENS_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("EXAMLENS_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("EXAMLENS_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", provider)
	}
	return nil
}
