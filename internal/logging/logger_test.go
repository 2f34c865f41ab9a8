package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"loud":    LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestWriterLogger_FiltersAndMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("scan", LevelInfo, &buf).With(Field{Key: "session", Value: "s1"})

	l.Debug("hidden")
	l.Warn("provider slow", Field{Key: "provider", Value: "search"}, Err(errors.New("timeout")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Level != "warn" || entry.Msg != "provider slow" || entry.Component != "scan" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Fields["session"] != "s1" || entry.Fields["provider"] != "search" || entry.Fields["error"] != "timeout" {
		t.Errorf("unexpected fields %v", entry.Fields)
	}
}

func TestWriterLogger_UnencodableField(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger("", LevelDebug, &buf).Info("odd", Field{Key: "ch", Value: make(chan int)})
	if !strings.HasPrefix(buf.String(), "info odd") {
		t.Errorf("expected plain fallback line, got %q", buf.String())
	}
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := WrapZap(zap.New(core)).With(Field{Key: "component", Value: "finder"})

	l.Info("finished", Field{Key: "opportunities", Value: 3})
	l.Error("failed", Err(errors.New("boom")))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if first["component"] != "finder" || first["opportunities"] != int64(3) {
		t.Errorf("unexpected context %v", first)
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["error"] != "boom" {
		t.Errorf("unexpected error entry %+v", entries[1])
	}
}

func TestZapLevelMapping(t *testing.T) {
	if zapLevel(LevelWarn) != zapcore.WarnLevel || zapLevel(LevelDebug) != zapcore.DebugLevel {
		t.Error("level mapping mismatch")
	}
}
