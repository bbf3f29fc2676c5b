package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"shelfmark/internal/services"
)

func TestConsoleHandlerHoistsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	NewComponentLogger(logger, "cachestore").Info("entry swept", Int("count", 3))

	line := buf.String()
	if !strings.Contains(line, "cachestore: entry swept") {
		t.Errorf("component not hoisted into prefix: %q", line)
	}
	if !strings.Contains(line, "count=3") {
		t.Errorf("attr missing: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("cache hit", String(FieldCacheKey, "emby_search_the matrix"))

	if !strings.Contains(buf.String(), `cache_key="emby_search_the matrix"`) {
		t.Errorf("value with spaces not quoted: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "abc-123")
	WithContext(ctx, logger).Info("resolving")

	if !strings.Contains(buf.String(), "correlation_id=abc-123") {
		t.Errorf("correlation id missing: %q", buf.String())
	}
}
