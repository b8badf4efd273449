package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]interface{}{"api_key", "sk-123", "model", "gemini"})
	if out[1] != "[REDACTED]" {
		t.Errorf("api_key = %v, want [REDACTED]", out[1])
	}
	if out[3] != "gemini" {
		t.Errorf("model = %v, want gemini", out[3])
	}
}

func TestSanitizeKVs_TruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("a", 2000)
	out := sanitizeKVs([]interface{}{"prompt", long})
	s, ok := out[1].(string)
	if !ok {
		t.Fatalf("expected string, got %T", out[1])
	}
	if len(s) >= 2000 {
		t.Errorf("expected truncated value, got %d bytes", len(s))
	}
}

func TestSanitizeKVs_BytesSummarized(t *testing.T) {
	out := sanitizeKVs([]interface{}{"image", []byte{1, 2, 3}})
	if out[1] != "[3 bytes]" {
		t.Errorf("image = %v, want [3 bytes]", out[1])
	}
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
}

func TestLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "diagram").Warn("synthesis failed", "tier", "high", "api_key", "x")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "diagram" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v", fields["api_key"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored", "k", "v")
	l.Sync()
}
