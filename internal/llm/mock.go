package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/abhisek/examlens/internal/media"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content   json.RawMessage
	Citations []Citation
	Usage     Usage
	Err       error

	// Block, when set, holds the call until it is closed or the context
	// ends. Tests use it to keep an operation in flight.
	Block <-chan struct{}
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: nil}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if err := waitBlock(ctx, resp.Block); err != nil {
		return nil, err
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Citations:  resp.Citations,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Call returns the i-th recorded request.
func (m *MockProvider) Call(i int) Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[i]
}

// MockImageResponse is a canned response for the MockImageProvider.
type MockImageResponse struct {
	Image *media.Image
	Err   error
}

// MockImageProvider is a FIFO ImageProvider for testing. An exhausted
// queue answers ErrNoImage.
type MockImageProvider struct {
	mu        sync.Mutex
	model     string
	responses []MockImageResponse
	Calls     []ImageRequest
}

// NewMockImageProvider creates a MockImageProvider reporting model as its ID.
func NewMockImageProvider(model string, responses ...MockImageResponse) *MockImageProvider {
	return &MockImageProvider{model: model, responses: responses}
}

func (m *MockImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, ErrNoImage
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Image == nil {
		return nil, ErrNoImage
	}
	return resp.Image, nil
}

func (m *MockImageProvider) ModelID() string {
	return m.model
}

// CallCount returns the number of GenerateImage calls made.
func (m *MockImageProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockSpeechResponse is a canned response for the MockSpeechProvider.
type MockSpeechResponse struct {
	PCM []byte
	Err error
}

// MockSpeechProvider is a FIFO SpeechProvider for testing.
type MockSpeechProvider struct {
	mu        sync.Mutex
	model     string
	responses []MockSpeechResponse
	Calls     []SpeechRequest
}

// NewMockSpeechProvider creates a MockSpeechProvider reporting model as its ID.
func NewMockSpeechProvider(model string, responses ...MockSpeechResponse) *MockSpeechProvider {
	return &MockSpeechProvider{model: model, responses: responses}
}

func (m *MockSpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &media.Audio{Format: media.SpeechFormat, PCM: resp.PCM}, nil
}

func (m *MockSpeechProvider) ModelID() string {
	return m.model
}

// CallCount returns the number of Synthesize calls made.
func (m *MockSpeechProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func waitBlock(ctx context.Context, block <-chan struct{}) error {
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
