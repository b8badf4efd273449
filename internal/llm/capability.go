package llm

import (
	"context"

	"github.com/abhisek/examlens/internal/media"
)

// ImageProvider is the image-generation capability of the gateway.
type ImageProvider interface {
	// GenerateImage renders one image for the prompt. When Seed is set the
	// provider receives it as a reference image. A completed call that
	// produced no image returns ErrNoImage.
	GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error)

	ModelID() string
}

// ImageRequest describes a single image generation.
type ImageRequest struct {
	Prompt string
	Seed   *media.Image
}

// SpeechProvider is the text-to-speech capability of the gateway.
type SpeechProvider interface {
	// Synthesize returns raw PCM in media.SpeechFormat.
	Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error)

	ModelID() string
}

// SpeechRequest describes a single speech synthesis.
type SpeechRequest struct {
	Text string

	// Voice is a vendor voice name. Empty uses the configured default.
	Voice string
}
