package llm

import (
	"context"
	"time"

	"github.com/abhisek/examlens/internal/media"
)

// The timeout decorators bound a whole gateway call, retries included.

type timeoutProvider struct {
	inner Provider
	d     time.Duration
}

// WithTimeout bounds every Generate call by d. Zero disables the bound.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, d: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }

type timeoutImageProvider struct {
	inner ImageProvider
	d     time.Duration
}

// WithImageTimeout bounds every GenerateImage call by d.
func WithImageTimeout(p ImageProvider, d time.Duration) ImageProvider {
	if d <= 0 {
		return p
	}
	return &timeoutImageProvider{inner: p, d: d}
}

func (t *timeoutImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.GenerateImage(ctx, req)
}

func (t *timeoutImageProvider) ModelID() string { return t.inner.ModelID() }

type timeoutSpeechProvider struct {
	inner SpeechProvider
	d     time.Duration
}

// WithSpeechTimeout bounds every Synthesize call by d.
func WithSpeechTimeout(p SpeechProvider, d time.Duration) SpeechProvider {
	if d <= 0 {
		return p
	}
	return &timeoutSpeechProvider{inner: p, d: d}
}

func (t *timeoutSpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Synthesize(ctx, req)
}

func (t *timeoutSpeechProvider) ModelID() string { return t.inner.ModelID() }
