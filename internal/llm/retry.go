package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/examlens/internal/media"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return retry(ctx, r.config, func() (*Response, error) {
		return r.inner.Generate(ctx, req)
	})
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// RetryImageProvider retries transient image generation failures.
type RetryImageProvider struct {
	inner  ImageProvider
	config RetryConfig
}

// WithImageRetry wraps an ImageProvider with retry logic.
func WithImageRetry(p ImageProvider, cfg RetryConfig) ImageProvider {
	return &RetryImageProvider{inner: p, config: cfg}
}

func (r *RetryImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	return retry(ctx, r.config, func() (*media.Image, error) {
		return r.inner.GenerateImage(ctx, req)
	})
}

func (r *RetryImageProvider) ModelID() string {
	return r.inner.ModelID()
}

// RetrySpeechProvider retries transient speech synthesis failures.
type RetrySpeechProvider struct {
	inner  SpeechProvider
	config RetryConfig
}

// WithSpeechRetry wraps a SpeechProvider with retry logic.
func WithSpeechRetry(p SpeechProvider, cfg RetryConfig) SpeechProvider {
	return &RetrySpeechProvider{inner: p, config: cfg}
}

func (r *RetrySpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	return retry(ctx, r.config, func() (*media.Audio, error) {
		return r.inner.Synthesize(ctx, req)
	})
}

func (r *RetrySpeechProvider) ModelID() string {
	return r.inner.ModelID()
}

// retry runs fn up to cfg.MaxAttempts times, sleeping between attempts.
func retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	invalidRetried := false

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) {
			return zero, err
		}

		// Last attempt: return without sleeping.
		if attempt == attempts-1 {
			break
		}

		wait := backoff(cfg, attempt, err)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}

	return zero, lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error, invalidRetried *bool) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A missing model or capability will not appear on a second try.
	var capErr *ErrCapabilityUnavailable
	if errors.As(err, &capErr) {
		return false
	}

	// A completed call that declined to draw is a result, not a fault.
	if errors.Is(err, ErrNoImage) {
		return false
	}

	// Max tokens is a configuration issue, not transient.
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}

	// Invalid response gets one retry.
	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// Rate limit, provider unavailable and other errors (network, etc.)
	// are treated as transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func backoff(cfg RetryConfig, attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(cfg.InitialWait) * math.Pow(cfg.Multiplier, float64(attempt))
	if wait > float64(cfg.MaxWait) {
		wait = float64(cfg.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
