package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSink_StderrOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(Options{Stderr: &buf})
	defer sink.Close()

	sink.Logger("[export] ").Printf("Exporting %s", "db")

	if !strings.Contains(buf.String(), "[export] ") || !strings.Contains(buf.String(), "Exporting db") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestSink_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "trackerdb.log")
	sink := NewSink(Options{File: path, Stderr: &buf})

	sink.Logger("[watch] ").Print("File event")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[watch] ") {
		t.Errorf("log file missing line: %q", data)
	}
	if !strings.Contains(buf.String(), "File event") {
		t.Errorf("stderr missing line: %q", buf.String())
	}
}
