package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_ConsoleLevel(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := New(Options{Verbose: tt.verbose, Console: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			log.Debug("debug line")
			log.Error("error line")
			_ = log.Sync()

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v; output:\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "error line") {
				t.Errorf("error line missing from console:\n%s", out)
			}
		})
	}
}

func TestNew_FileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "surveyor.log")
	var console bytes.Buffer

	log, err := New(Options{File: path, Console: &console})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("session loaded", zap.Int("topics", 3))
	log.Debug("not written")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log has %d lines, want 1:\n%s", len(lines), data)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["message"] != "session loaded" || record["level"] != "INFO" {
		t.Errorf("record = %v", record)
	}
	if record["topics"] != float64(3) {
		t.Errorf("topics = %v, want 3", record["topics"])
	}
	if console.Len() != 0 {
		t.Errorf("info should not reach the console: %q", console.String())
	}
}
