package log

import (
	"strings"
	"testing"
)

func TestLevelsFilter(t *testing.T) {
	var sb strings.Builder
	l := New(&sb, LevelWarn)
	l.Debugf("nope")
	l.Infof("nope")
	l.Warnf("warned %d", 1)
	l.Errorf("failed")

	out := sb.String()
	if strings.Contains(out, "nope") {
		t.Errorf("low levels leaked: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "warned 1") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "ERROR") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestNamedAndFields(t *testing.T) {
	var sb strings.Builder
	l := New(&sb, LevelInfo).Named("swap").With("path", "/tmp/x")
	l.Infof("flushed")
	out := sb.String()
	if !strings.Contains(out, "[swap]") {
		t.Errorf("missing name: %q", out)
	}
	if !strings.Contains(out, "path=/tmp/x") {
		t.Errorf("missing field: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must not write anywhere observable.
	Discard().Errorf("into the void")
}
