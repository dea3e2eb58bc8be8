package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"json", Config{Level: "info", Format: "json"}, false},
		{"console", Config{Level: "debug", Format: "console"}, false},
		{"auto", Config{Level: "warn"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil && l == nil {
				t.Error("expected a logger")
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if NewLogger(false).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be disabled without verbose")
	}
	if !NewLogger(true).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled with verbose")
	}
}

func TestWrap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core))
	l.Infow("saved session", "topic", "abc")
	l.Debugw("hidden")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "saved session" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[0].ContextMap()["topic"] != "abc" {
		t.Errorf("expected topic field, got %v", entries[0].ContextMap())
	}

	Nop().Infow("discarded")
}
