package slogutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stripdemo/internal/config"
)

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	tests := []struct {
		name      string
		cliLevel  string
		global    string
		server    string
		subsystem string
		want      slog.Level
	}{
		{"default", "", "", "", "server", slog.LevelInfo},
		{"global", "", "warn", "", "server", slog.LevelWarn},
		{"subsystem beats global", "", "warn", "debug", "server", slog.LevelDebug},
		{"override only applies to its subsystem", "", "warn", "debug", "client", slog.LevelWarn},
		{"cli beats everything", "error", "warn", "debug", "server", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Logging.Level = tt.global
			cfg.Logging.Server = tt.server

			f := NewLoggerFactory(cfg, tt.cliLevel, &bytes.Buffer{})
			if got := f.EffectiveLevel(tt.subsystem); got != tt.want {
				t.Errorf("EffectiveLevel(%q) = %v, want %v", tt.subsystem, got, tt.want)
			}
		})
	}
}

func TestLoggerFactory_Stderr(t *testing.T) {
	var buf bytes.Buffer
	f := NewLoggerFactory(config.DefaultConfig(), "", &buf)

	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger failed: %v", err)
	}
	logger.Info("listening", "addr", ":3000")

	output := buf.String()
	if !strings.Contains(output, "subsystem=server") || !strings.Contains(output, "addr=:3000") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLoggerFactory_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Logging.Format = "json"

	logger, err := NewLoggerFactory(cfg, "", &buf).ClientLogger()
	if err != nil {
		t.Fatalf("ClientLogger failed: %v", err)
	}
	logger.Info("saved", "status", 201)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "saved" || entry["subsystem"] != "client" || entry["status"] != float64(201) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestLoggerFactory_FileTeesWarnings(t *testing.T) {
	home := t.TempDir()
	t.Setenv("STRIPDEMO_HOME", home)

	var stderr bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Logging.File = "auto"
	cfg.Logging.MaxSize = "1MB"

	f := NewLoggerFactory(cfg, "", &stderr)
	logger, err := f.ServerLogger()
	if err != nil {
		t.Fatalf("ServerLogger failed: %v", err)
	}
	logger.Info("info only in file")
	logger.Warn("warning everywhere")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, "logs", "server.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "info only in file") || !strings.Contains(string(data), "warning everywhere") {
		t.Errorf("file should contain both records, got: %s", data)
	}
	if strings.Contains(stderr.String(), "info only in file") {
		t.Error("stderr should not receive info records when logging to a file")
	}
	if !strings.Contains(stderr.String(), "warning everywhere") {
		t.Error("stderr should receive warnings")
	}
}

func TestLoggerFactory_FileError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Logging.File = filepath.Join(blocker, "server.log")

	logger, err := NewLoggerFactory(cfg, "", &stderr).ServerLogger()
	if err == nil {
		t.Error("expected an error when the log file cannot be created")
	}
	if logger == nil {
		t.Fatal("a stderr logger should still be returned")
	}
	logger.Info("still logged")
	if !strings.Contains(stderr.String(), "still logged") {
		t.Error("fallback logger should write to stderr")
	}
}
