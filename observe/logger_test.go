package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

// TestLogger_IncludesPath verifies the dispatch path is present in log output.
func TestLogger_IncludesPath(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithPath([]string{"user", "profile", "email"}).Info(context.Background(), "test message")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if v := entries[0]["shadow.path"]; v != "user.profile.email" {
		t.Errorf("expected shadow.path='user.profile.email', got %v", v)
	}
	if v := entries[0]["msg"]; v != "test message" {
		t.Errorf("expected msg='test message', got %v", v)
	}
	if v := entries[0]["level"]; v != "info" {
		t.Errorf("expected level='info', got %v", v)
	}
	if _, ok := entries[0]["timestamp"].(string); !ok {
		t.Error("expected timestamp field")
	}
}

// TestLogger_WithPathDoesNotLeak verifies derived loggers do not affect the parent.
func TestLogger_WithPathDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithPath([]string{"a"})
	logger.Info(context.Background(), "plain")

	entries := decodeLines(t, &buf)
	if _, ok := entries[0]["shadow.path"]; ok {
		t.Error("parent logger should not carry shadow.path")
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

// TestLogger_RedactsSensitiveFields verifies sensitive keys never reach the output.
func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	fields := make([]Field, 0, len(RedactedFields)+1)
	for _, key := range RedactedFields {
		fields = append(fields, Field{Key: key, Value: "hunter2"})
	}
	fields = append(fields, Field{Key: "visible", Value: "ok"})

	logger.Info(context.Background(), "secrets", fields...)

	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("sensitive value leaked: %s", buf.String())
	}
	entries := decodeLines(t, &buf)
	for _, key := range RedactedFields {
		if entries[0][key] != "[REDACTED]" {
			t.Errorf("expected %s to be redacted, got %v", key, entries[0][key])
		}
	}
	if entries[0]["visible"] != "ok" {
		t.Errorf("expected visible='ok', got %v", entries[0]["visible"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestLogger_ConcurrentWrites verifies entries are not interleaved.
func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.WithPath([]string{"k"}).Info(ctx, "concurrent", Field{Key: "i", Value: i})
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 20 {
		t.Errorf("expected 20 entries, got %d", got)
	}
}

func TestLogger_RedactionIgnoresCaseAndSeparators(t *testing.T) {
	for _, key := range []string{"apiKey", "API-Key", "Password", "PRIVATE_KEY", "Authorization"} {
		if !isRedactedField(key) {
			t.Errorf("isRedactedField(%q) = false, want true", key)
		}
	}
	for _, key := range []string{"name", "keys", "tokens_used"} {
		if isRedactedField(key) {
			t.Errorf("isRedactedField(%q) = true, want false", key)
		}
	}
}

func TestLogger_TagsActiveSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "dispatch")
	defer span.End()

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)
	logger.Info(ctx, "inside span")
	logger.Info(context.Background(), "outside span")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	sc := span.SpanContext()
	if entries[0]["trace_id"] != sc.TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entries[0]["trace_id"], sc.TraceID())
	}
	if entries[0]["span_id"] != sc.SpanID().String() {
		t.Errorf("span_id = %v, want %s", entries[0]["span_id"], sc.SpanID())
	}
	if _, ok := entries[1]["trace_id"]; ok {
		t.Errorf("unexpected trace_id outside a span: %v", entries[1])
	}
}
