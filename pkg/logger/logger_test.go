package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Debug("hidden")
	log.Info("plain message", "key", "value")
	log.Warn("careful")
	log.Error("broken")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out, "plain message") || !strings.Contains(out, "key=value") {
		t.Errorf("info record missing message or attrs: %q", out)
	}
	if !strings.Contains(out, colorYellow+"WARN") {
		t.Errorf("warn record not colored yellow: %q", out)
	}
	if !strings.Contains(out, colorRed+"ERROR") {
		t.Errorf("error record not colored red: %q", out)
	}
}

func TestColorHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, nil))

	log.With("request_id", "r1").WithGroup("search").Info("done", "hits", 3)

	out := buf.String()
	if !strings.Contains(out, "request_id=r1") {
		t.Errorf("missing bound attr: %q", out)
	}
	if !strings.Contains(out, "search.hits=3") {
		t.Errorf("missing grouped attr: %q", out)
	}
}
