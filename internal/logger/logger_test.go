package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("solved", "iterations", 12)

	out := buf.String()
	if !strings.Contains(out, "solved") {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, `"iterations":12`) {
		t.Fatalf("missing attribute: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("unexpected output below warn: %s", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn record missing: %s", buf.String())
	}
}

func TestPrettyFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.Debug("iteration", "mu", 0.5, "status", "in progress")

	out := buf.String()
	if !strings.Contains(out, "mu=0.5") {
		t.Fatalf("missing numeric attr: %s", out)
	}
	if !strings.Contains(out, `status="in progress"`) {
		t.Fatalf("string with spaces must be quoted: %s", out)
	}
}

func TestWithCarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("request_id", "abc")
	log.Info("accepted")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Fatalf("With attrs missing: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("fallback logger must not be nil")
	}
}
