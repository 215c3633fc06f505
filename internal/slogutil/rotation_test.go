package slogutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100B", 100},
		{"1kb", 1024},
		{"10KB", 10240},
		{"1MB", 1024 * 1024},
		{" 10MB ", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
		{"-1MB", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := append(bytes.Repeat([]byte("a"), 29), '\n')
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should exist: %v", filepath.Base(p), err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("only maxBackups backups should be kept")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(line) {
		t.Errorf("current file has %d bytes, want %d", len(data), len(line))
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.log")

	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 3; i++ {
		if _, err := rf.Write([]byte("12345678\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be created when maxBackups is 0")
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "x.log"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = rf.Close()

	if _, err := rf.Write([]byte("late\n")); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestRotatingFile_RecoversAfterFailedReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	if _, err := rf.Write([]byte("12345678\n")); err != nil {
		t.Fatal(err)
	}

	// A non-empty directory at path survives the rotation's remove and
	// makes the reopen fail.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := rf.Write([]byte("lost\n")); err == nil {
		t.Fatal("Write() succeeded while the log path was a directory")
	}

	if err := os.RemoveAll(path); err != nil {
		t.Fatal(err)
	}
	if _, err := rf.Write([]byte("again\n")); err != nil {
		t.Fatalf("Write() after the path was freed error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "again\n" {
		t.Errorf("log content = %q, want %q", data, "again\n")
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()

	plain, err := OpenLogFile(filepath.Join(dir, "nested", "plain.log"), "", 3)
	if err != nil {
		t.Fatalf("OpenLogFile without rotation failed: %v", err)
	}
	defer plain.Close()
	if _, ok := plain.(*RotatingFile); ok {
		t.Error("empty maxSize should not rotate")
	}

	rotating, err := OpenLogFile(filepath.Join(dir, "rotating.log"), "1MB", 3)
	if err != nil {
		t.Fatalf("OpenLogFile with rotation failed: %v", err)
	}
	defer rotating.Close()
	if _, ok := rotating.(*RotatingFile); !ok {
		t.Errorf("OpenLogFile(1MB) = %T, want *RotatingFile", rotating)
	}
}
