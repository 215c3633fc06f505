package slogutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"stripdemo/internal/config"
	"stripdemo/internal/paths"
)

// LoggerFactory creates loggers for the server and client subsystems.
// Level precedence: CLI flag > subsystem config > global config > info.
type LoggerFactory struct {
	cfg      config.LoggingConfig
	cliLevel string
	stderr   io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel is "" when no --log-level
// flag was given; stderr defaults to os.Stderr when nil.
func NewLoggerFactory(cfg *config.Config, cliLevel string, stderr io.Writer) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &LoggerFactory{cfg: cfg.Logging, cliLevel: cliLevel, stderr: stderr}
}

// ServerLogger creates the logger for the static asset server.
func (f *LoggerFactory) ServerLogger() (*slog.Logger, error) {
	return f.For("server")
}

// ClientLogger creates the logger for the user submission client.
func (f *LoggerFactory) ClientLogger() (*slog.Logger, error) {
	return f.For("client")
}

// For creates a logger for subsystem. When logging.file is set, records go
// to that file and warnings are also written to stderr. If the file cannot
// be opened the returned logger writes to stderr and the error is returned.
// When logging.loki.endpoint is set, records are also shipped to Loki.
func (f *LoggerFactory) For(subsystem string) (*slog.Logger, error) {
	level := f.EffectiveLevel(subsystem)

	local, err := f.localHandler(subsystem, level)
	if f.cfg.Loki.Endpoint == "" {
		return slog.New(local).With("subsystem", subsystem), err
	}

	loki, lokiErr := f.lokiHandler(subsystem, level)
	if lokiErr != nil {
		return slog.New(local).With("subsystem", subsystem), errors.Join(err, lokiErr)
	}
	f.closers = append(f.closers, loki)
	return slog.New(NewTeeHandler(local, loki)).With("subsystem", subsystem), err
}

// localHandler writes to stderr, or to the configured log file with
// warnings teed to stderr.
func (f *LoggerFactory) localHandler(subsystem string, level slog.Level) (slog.Handler, error) {
	stderrHandler := f.handler(f.stderr, level)
	if f.cfg.File == "" {
		return stderrHandler, nil
	}

	path := f.cfg.File
	if path == "auto" {
		p, err := paths.GetLogPath(subsystem)
		if err != nil {
			return stderrHandler, err
		}
		path = p
	}

	w, err := OpenLogFile(path, f.cfg.MaxSize, f.cfg.MaxBackups)
	if err != nil {
		return stderrHandler, err
	}
	f.closers = append(f.closers, w)

	warnLevel := level
	if warnLevel < slog.LevelWarn {
		warnLevel = slog.LevelWarn
	}
	return NewTeeHandler(f.handler(w, level), f.handler(f.stderr, warnLevel)), nil
}

// lokiHandler ships the subsystem's records with app and subsystem labels.
func (f *LoggerFactory) lokiHandler(subsystem string, level slog.Level) (*LokiHandler, error) {
	cfg := f.cfg.Loki

	labels := map[string]string{"app": "stripdemo"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}
	labels["subsystem"] = subsystem

	var interval time.Duration
	if cfg.FlushInterval != "" {
		d, err := time.ParseDuration(cfg.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid logging.loki.flushInterval %q: %w", cfg.FlushInterval, err)
		}
		interval = d
	}

	return NewLokiHandler(LokiOptions{
		Endpoint:      cfg.Endpoint,
		Labels:        labels,
		BatchSize:     cfg.BatchSize,
		FlushInterval: interval,
	}, level)
}

// EffectiveLevel returns the level a subsystem logs at.
func (f *LoggerFactory) EffectiveLevel(subsystem string) slog.Level {
	if f.cliLevel != "" {
		return LevelFromString(f.cliLevel)
	}

	var override string
	switch subsystem {
	case "server":
		override = f.cfg.Server
	case "client":
		override = f.cfg.Client
	}
	if override != "" {
		return LevelFromString(override)
	}
	if f.cfg.Level != "" {
		return LevelFromString(f.cfg.Level)
	}
	return slog.LevelInfo
}

func (f *LoggerFactory) handler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f.cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewHandler(w, opts)
}

// Close closes all open log files and flushes Loki handlers.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
