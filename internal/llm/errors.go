package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrCapabilityUnavailable indicates the configured credential cannot reach
// the requested model or capability (model not found, not enabled for the
// key). Retrying will not help; the user has to change credentials or tier.
type ErrCapabilityUnavailable struct {
	Model string
	Err   error
}

func (e *ErrCapabilityUnavailable) Error() string {
	return fmt.Sprintf("capability unavailable for model %q: %v", e.Model, e.Err)
}

func (e *ErrCapabilityUnavailable) Unwrap() error { return e.Err }

// ErrNoImage indicates an image request completed without returning image
// data (safety block, text-only answer).
var ErrNoImage = errors.New("no image in response")

// IsCapabilityUnavailable reports whether err carries the
// model-not-found signature.
func IsCapabilityUnavailable(err error) bool {
	var cu *ErrCapabilityUnavailable
	return errors.As(err, &cu)
}

// notFoundSignature matches vendor error text for missing models. Gemini
// answers "Requested entity was not found", OpenAI uses the
// "model_not_found" code, Anthropic returns "not_found_error".
func notFoundSignature(status int, msg string) bool {
	if status == http.StatusNotFound {
		return true
	}
	m := strings.ToLower(msg)
	return strings.Contains(m, "requested entity was not found") ||
		strings.Contains(m, "model_not_found") ||
		strings.Contains(m, "not_found_error") ||
		strings.Contains(m, "does not exist or you do not have access")
}

var errNoAudio = errors.New("no audio in response")
