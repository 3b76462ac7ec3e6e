package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitWithWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)

	Info("hello world", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected field in output, got %q", out)
	}
}

func TestInitWithWriterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "json", false)

	Info("structured message", "count", 3)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got error %v: %q", err, buf.String())
	}
	if decoded["msg"] != "structured message" {
		t.Errorf("msg = %v", decoded["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)

	Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected Info to be filtered out at WARN level, got %q", buf.String())
	}

	Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("expected Warn line, got %q", buf.String())
	}
}

func TestCtxVariantsInjectLogContext(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)

	lc := NewLogContext("10.0.0.1").WithSession("sess-1", "shared").WithPhase("ready")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "bound session")

	out := buf.String()
	for _, want := range []string{"session_id=sess-1", "folder=shared", "phase=ready", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestFromContextNilSafe(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil LogContext for bare context")
	}
	if FromContext(nil) != nil {
		t.Error("expected nil LogContext for nil context")
	}
}

func TestLevelStringer(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}
