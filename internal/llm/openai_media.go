package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhisek/examlens/internal/media"
)

// OpenAIImageProvider implements ImageProvider with the OpenAI images API.
// A seed image switches the call to the edits endpoint.
type OpenAIImageProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIImageProvider creates an OpenAI image provider.
func NewOpenAIImageProvider(cfg OpenAIConfig, model string) (*OpenAIImageProvider, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAIImageProvider{client: client, model: resolveModel(model, openaiModels)}, nil
}

func (p *OpenAIImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	var (
		resp openai.ImageResponse
		err  error
	)
	if req.Seed != nil {
		resp, err = p.client.CreateEditImage(ctx, openai.ImageEditRequest{
			Image:  &namedReader{Reader: bytes.NewReader(req.Seed.Data), name: "seed" + req.Seed.Ext(), mime: req.Seed.MIMEType},
			Prompt: req.Prompt,
			Model:  p.model,
			N:      1,
			Size:   openai.CreateImageSize1024x1024,
		})
	} else {
		imgReq := openai.ImageRequest{
			Prompt: req.Prompt,
			Model:  p.model,
			N:      1,
			Size:   openai.CreateImageSize1024x1024,
		}
		// gpt-image models always answer in base64 and reject the field.
		if p.model == openai.CreateImageModelDallE3 || p.model == openai.CreateImageModelDallE2 {
			imgReq.ResponseFormat = openai.CreateImageResponseFormatB64JSON
		}
		resp, err = p.client.CreateImage(ctx, imgReq)
	}
	if err != nil {
		return nil, mapOpenAIError(p.model, err)
	}

	for _, d := range resp.Data {
		if d.B64JSON == "" {
			continue
		}
		img, err := media.DecodeBase64(d.B64JSON)
		if err != nil {
			return nil, &ErrInvalidResponse{Err: err}
		}
		return img, nil
	}
	return nil, ErrNoImage
}

func (p *OpenAIImageProvider) ModelID() string {
	return p.model
}

// namedReader gives the multipart builder a filename and content type.
type namedReader struct {
	io.Reader
	name string
	mime string
}

func (r *namedReader) Name() string        { return r.name }
func (r *namedReader) ContentType() string { return r.mime }

// OpenAISpeechProvider implements SpeechProvider with the OpenAI speech
// API. The pcm response format is 24 kHz mono s16le.
type OpenAISpeechProvider struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAISpeechProvider creates an OpenAI speech provider.
func NewOpenAISpeechProvider(cfg OpenAIConfig, model, voice string) (*OpenAISpeechProvider, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenAISpeechProvider{client: client, model: resolveModel(model, openaiModels), voice: voice}, nil
}

func (p *OpenAISpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	raw, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, mapOpenAIError(p.model, err)
	}
	defer raw.Close()

	pcm, err := io.ReadAll(raw)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("read speech body: %w", err)}
	}
	if len(pcm) == 0 {
		return nil, &ErrInvalidResponse{Err: errNoAudio}
	}
	return &media.Audio{Format: media.SpeechFormat, PCM: pcm}, nil
}

func (p *OpenAISpeechProvider) ModelID() string {
	return p.model
}
