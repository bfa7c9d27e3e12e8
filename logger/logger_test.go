package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: "json"}, "authd", &buf)
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.Info("signed in", Fields(FieldAccountID, "acc-1"))

	m := decodeLine(t, buf)
	if m["message"] != "signed in" {
		t.Errorf("expected message 'signed in', got %v", m["message"])
	}
	if m["service"] != "authd" {
		t.Errorf("expected service 'authd', got %v", m["service"])
	}
	if m[FieldAccountID] != "acc-1" {
		t.Errorf("expected account_id 'acc-1', got %v", m[FieldAccountID])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, "warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newBufferLogger(t, "invalid-level")
	l.Debug("dropped")
	l.Info("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected info level fallback, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithComponent("oauth2").Info("init")
	m := decodeLine(t, buf)
	if m[FieldComponent] != "oauth2" {
		t.Errorf("expected component 'oauth2', got %v", m[FieldComponent])
	}
}

func TestWithContext(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithAccountID(ctx, "acc-9")
	l.WithContext(ctx).Info("refresh")

	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id 'req-1', got %v", m[FieldRequestID])
	}
	if m[FieldAccountID] != "acc-9" {
		t.Errorf("expected account_id 'acc-9', got %v", m[FieldAccountID])
	}
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error 'boom', got %v", m["error"])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.WithComponent("x").Error("still nothing")
}

func TestSetGlobalLogger(t *testing.T) {
	l := NewNop()
	SetGlobalLogger(l)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected format 'json', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored")
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f) != 2 {
		t.Errorf("expected 2 fields, got %d", len(f))
	}
}
