package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/media"
	"github.com/abhisek/examlens/internal/store"
)

// LoggingProvider is a decorator that records every text request as an
// event and a debug log line.
type LoggingProvider struct {
	inner     Provider
	vendor    string
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, vendor string, repo store.EventRepo, log *logger.Logger) Provider {
	return &LoggingProvider{inner: p, vendor: vendor, eventRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Capability:  string(CapabilityText),
		Provider:    l.vendor,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = serializeResponse(resp)
	}

	record(ctx, l.eventRepo, l.log, data, err)
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// LoggingImageProvider records every image request as an event.
type LoggingImageProvider struct {
	inner     ImageProvider
	vendor    string
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithImageLogging wraps an ImageProvider with event logging.
func WithImageLogging(p ImageProvider, vendor string, repo store.EventRepo, log *logger.Logger) ImageProvider {
	return &LoggingImageProvider{inner: p, vendor: vendor, eventRepo: repo, log: log}
}

func (l *LoggingImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*media.Image, error) {
	start := time.Now()

	img, err := l.inner.GenerateImage(ctx, req)

	reqBody := req.Prompt
	if req.Seed != nil {
		reqBody += "\n\n" + describeImage(req.Seed)
	}
	data := store.LLMRequestEventData{
		Capability:  string(CapabilityImage),
		Provider:    l.vendor,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: reqBody,
	}
	if img != nil {
		data.ResponseBody = describeImage(img)
	}

	record(ctx, l.eventRepo, l.log, data, err)
	return img, err
}

func (l *LoggingImageProvider) ModelID() string {
	return l.inner.ModelID()
}

// LoggingSpeechProvider records every speech request as an event.
type LoggingSpeechProvider struct {
	inner     SpeechProvider
	vendor    string
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithSpeechLogging wraps a SpeechProvider with event logging.
func WithSpeechLogging(p SpeechProvider, vendor string, repo store.EventRepo, log *logger.Logger) SpeechProvider {
	return &LoggingSpeechProvider{inner: p, vendor: vendor, eventRepo: repo, log: log}
}

func (l *LoggingSpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*media.Audio, error) {
	start := time.Now()

	audio, err := l.inner.Synthesize(ctx, req)

	data := store.LLMRequestEventData{
		Capability:  string(CapabilitySpeech),
		Provider:    l.vendor,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: fmt.Sprintf("[voice: %s]\n%s", req.Voice, req.Text),
	}
	if audio != nil {
		data.ResponseBody = fmt.Sprintf("[audio %d bytes, %s]", len(audio.PCM), audio.Duration())
	}

	record(ctx, l.eventRepo, l.log, data, err)
	return audio, err
}

func (l *LoggingSpeechProvider) ModelID() string {
	return l.inner.ModelID()
}

// record appends the event and writes the debug line. A logging failure
// never fails the request.
func record(ctx context.Context, repo store.EventRepo, log *logger.Logger, data store.LLMRequestEventData, err error) {
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	log.Debug("llm request",
		"capability", data.Capability,
		"provider", data.Provider,
		"model", data.Model,
		"purpose", data.Purpose,
		"latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
		"success", data.Success,
		"error", data.ErrorMessage,
	)

	if repo == nil {
		return
	}
	// The caller's context may already be cancelled; the event is still
	// worth keeping.
	if logErr := repo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		log.Warn("failed to log LLM request event", "error", logErr)
	}
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n")
		for _, img := range m.Images {
			b.WriteString(describeImage(img))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if req.Grounding {
		b.WriteString("[grounding: web search]\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func serializeResponse(resp *Response) string {
	if len(resp.Citations) == 0 {
		return string(resp.Content)
	}
	var b strings.Builder
	b.Write(resp.Content)
	b.WriteString("\n\n[citations]\n")
	for _, c := range resp.Citations {
		fmt.Fprintf(&b, "- %s %s\n", c.Title, c.URI)
	}
	return b.String()
}

func describeImage(img *media.Image) string {
	if img == nil {
		return "[image: none]"
	}
	return fmt.Sprintf("[image %s, %d bytes]", img.MIMEType, len(img.Data))
}
