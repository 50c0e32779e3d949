package logx_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tsume/pkg/logx"
)

// TestNewLoggerTo verifies console output carries the message and fields.
func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	log := logx.NewLoggerTo(&buf)
	log.Info().Int("nodes", 42).Msg("solved")
	out := buf.String()
	if !strings.Contains(out, "solved") || !strings.Contains(out, "42") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "logx_test.go:") {
		t.Fatalf("caller missing: %q", out)
	}
}

// TestParseLevel verifies level names and the info default.
func TestParseLevel(t *testing.T) {
	if level, err := logx.ParseLevel(""); err != nil || level != zerolog.InfoLevel {
		t.Fatalf("default: got %v, %v", level, err)
	}
	if level, err := logx.ParseLevel("debug"); err != nil || level != zerolog.DebugLevel {
		t.Fatalf("debug: got %v, %v", level, err)
	}
	if _, err := logx.ParseLevel("loud"); err == nil {
		t.Fatal("unknown level should fail")
	}
}
