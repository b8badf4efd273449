package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/store"
)

// Gateway holds one provider per capability and tier. Components ask it for
// the tier they want and fall back explicitly; the gateway itself never
// switches tiers.
type Gateway struct {
	TextHigh, TextLow     Provider
	ImageHigh, ImageLow   ImageProvider
	SpeechHigh, SpeechLow SpeechProvider
}

// Text returns the structured-text provider for a tier.
func (g *Gateway) Text(t Tier) Provider {
	if t == TierLow {
		return g.TextLow
	}
	return g.TextHigh
}

// Image returns the image provider for a tier.
func (g *Gateway) Image(t Tier) ImageProvider {
	if t == TierLow {
		return g.ImageLow
	}
	return g.ImageHigh
}

// Speech returns the speech provider for a tier.
func (g *Gateway) Speech(t Tier) SpeechProvider {
	if t == TierLow {
		return g.SpeechLow
	}
	return g.SpeechHigh
}

// NewGateway creates every provider named by cfg. Each one is wrapped as
// caller → timeout → retry → logging → base.
func NewGateway(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (*Gateway, error) {
	cfg.ApplyModelDefaults()
	g := &Gateway{}

	for _, tier := range []Tier{TierHigh, TierLow} {
		tp, err := newTextProvider(ctx, cfg, cfg.Text.Model(tier))
		if err != nil {
			return nil, fmt.Errorf("initializing %s text provider: %w", cfg.Text.Provider, err)
		}
		tp = WithTimeout(WithRetry(WithLogging(tp, cfg.Text.Provider, eventRepo, log), cfg.Retry), cfg.Timeout)

		ip, err := newImageProvider(ctx, cfg, cfg.Image.Model(tier))
		if err != nil {
			return nil, fmt.Errorf("initializing %s image provider: %w", cfg.Image.Provider, err)
		}
		ip = WithImageTimeout(WithImageRetry(WithImageLogging(ip, cfg.Image.Provider, eventRepo, log), cfg.Retry), cfg.Timeout)

		sp, err := newSpeechProvider(ctx, cfg, cfg.Speech.Model(tier))
		if err != nil {
			return nil, fmt.Errorf("initializing %s speech provider: %w", cfg.Speech.Provider, err)
		}
		sp = WithSpeechTimeout(WithSpeechRetry(WithSpeechLogging(sp, cfg.Speech.Provider, eventRepo, log), cfg.Retry), cfg.Timeout)

		if tier == TierHigh {
			g.TextHigh, g.ImageHigh, g.SpeechHigh = tp, ip, sp
		} else {
			g.TextLow, g.ImageLow, g.SpeechLow = tp, ip, sp
		}
	}

	log.Debug("llm gateway ready",
		"text", cfg.Text.Provider, "text_high", cfg.Text.HighModel, "text_low", cfg.Text.LowModel,
		"image", cfg.Image.Provider, "image_high", cfg.Image.HighModel, "image_low", cfg.Image.LowModel,
		"speech", cfg.Speech.Provider, "speech_high", cfg.Speech.HighModel, "speech_low", cfg.Speech.LowModel,
	)
	return g, nil
}

func newTextProvider(ctx context.Context, cfg Config, model string) (Provider, error) {
	switch cfg.Text.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, model)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, model)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini, model)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter, model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Text.Provider)
	}
}

func newImageProvider(ctx context.Context, cfg Config, model string) (ImageProvider, error) {
	switch cfg.Image.Provider {
	case "openai":
		return NewOpenAIImageProvider(cfg.OpenAI, model)
	case "gemini":
		return NewGeminiImageProvider(ctx, cfg.Gemini, model)
	case "mock":
		return NewMockImageProvider(model), nil
	default:
		return nil, fmt.Errorf("provider %q has no image capability", cfg.Image.Provider)
	}
}

func newSpeechProvider(ctx context.Context, cfg Config, model string) (SpeechProvider, error) {
	switch cfg.Speech.Provider {
	case "openai":
		return NewOpenAISpeechProvider(cfg.OpenAI, model, cfg.Voice)
	case "gemini":
		return NewGeminiSpeechProvider(ctx, cfg.Gemini, model, cfg.Voice)
	case "mock":
		return NewMockSpeechProvider(model), nil
	default:
		return nil, fmt.Errorf("provider %q has no speech capability", cfg.Speech.Provider)
	}
}
