package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)

	l.Info("found %d songs", 3)
	l.Debug("hidden")
	l.Warn("careful")
	l.Error("broken: %v", "x")

	out := buf.String()
	if !strings.Contains(out, "found 3 songs\n") {
		t.Errorf("info line missing: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug should be suppressed when not verbose: %q", out)
	}
	if !strings.Contains(out, "[WARN] careful") {
		t.Errorf("warn line missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] broken: x") {
		t.Errorf("error line missing: %q", out)
	}
}

func TestProgressBarSuppressesStdout(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)
	l.SetProgressBar(true)
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("expected no output while bar is active, got %q", buf.String())
	}
}

func TestFileLogGetsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)

	path := filepath.Join(t.TempDir(), "run.log")
	if err := l.SetFileLog(path); err != nil {
		t.Fatal(err)
	}
	l.Debug("cache hit for %s", "Queen")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[DEBUG] cache hit for Queen") {
		t.Errorf("file log = %q", data)
	}
}
