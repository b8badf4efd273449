package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/abhisek/examlens/internal/media"
)

// GeminiImageProvider implements ImageProvider through the IMAGE response
// modality of a Gemini image model.
type GeminiImageProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiImageProvider creates a Gemini image provider.
func NewGeminiImageProvider(ctx context.Context, cfg GeminiConfig, model string) (*GeminiImageProvider, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiImageProvider{client: client, model: resolveModel(model, geminiModels)}, nil
}

func (p *GeminiImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Seed != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.Seed.MIMEType, Data: req.Seed.Data},
		})
	}

	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: "1:1"},
	}
	config.ResponseModalities = append(config.ResponseModalities, "IMAGE", "TEXT")

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Role: "user", Parts: parts}}, config)
	if err != nil {
		return nil, mapGeminiError(p.model, err)
	}

	blob := firstInlineData(result, "image/")
	if blob == nil {
		return nil, ErrNoImage
	}
	return media.NewImage(blob.Data, blob.MIMEType), nil
}

func (p *GeminiImageProvider) ModelID() string {
	return p.model
}

const defaultGeminiVoice = "Kore"

// GeminiSpeechProvider implements SpeechProvider through the AUDIO response
// modality of a Gemini TTS model. Gemini returns 24 kHz mono s16le PCM.
type GeminiSpeechProvider struct {
	client *genai.Client
	model  string
	voice  string
}

// NewGeminiSpeechProvider creates a Gemini speech provider.
func NewGeminiSpeechProvider(ctx context.Context, cfg GeminiConfig, model, voice string) (*GeminiSpeechProvider, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiSpeechProvider{client: client, model: resolveModel(model, geminiModels), voice: voice}, nil
}

func (p *GeminiSpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	if voice == "" {
		voice = defaultGeminiVoice
	}

	config := &genai.GenerateContentConfig{
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	config.ResponseModalities = append(config.ResponseModalities, "AUDIO")

	result, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Text}}}}, config)
	if err != nil {
		return nil, mapGeminiError(p.model, err)
	}

	blob := firstInlineData(result, "audio/")
	if blob == nil || len(blob.Data) == 0 {
		return nil, &ErrInvalidResponse{Err: errNoAudio}
	}
	return &media.Audio{Format: media.SpeechFormat, PCM: blob.Data}, nil
}

func (p *GeminiSpeechProvider) ModelID() string {
	return p.model
}

// firstInlineData returns the first inline blob whose MIME type starts with
// prefix, scanning every candidate.
func firstInlineData(result *genai.GenerateContentResponse, prefix string) *genai.Blob {
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if strings.HasPrefix(part.InlineData.MIMEType, prefix) {
				return part.InlineData
			}
		}
	}
	return nil
}
