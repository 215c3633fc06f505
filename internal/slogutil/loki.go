package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const lokiPushPath = "/loki/api/v1/push"

// LokiOptions configures a LokiHandler
type LokiOptions struct {
	// Endpoint is the Loki base URL, e.g. http://localhost:3100
	Endpoint string
	// Labels are attached to every stream; host is added when missing
	Labels map[string]string
	// BatchSize triggers a push once this many records are buffered (default 100)
	BatchSize int
	// FlushInterval pushes whatever is buffered on this period (default 5s)
	FlushInterval time.Duration
	// Client defaults to an http.Client with a 10s timeout
	Client *http.Client
}

// LokiHandler is a slog.Handler that ships records to Grafana Loki in
// batches. Handlers derived with WithAttrs/WithGroup share one buffer.
type LokiHandler struct {
	sink   *lokiSink
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

type lokiSink struct {
	url       string
	labels    map[string]string
	batchSize int
	client    *http.Client

	mu     sync.Mutex
	buffer []lokiEntry
	closed bool

	done     chan struct{}
	loop     sync.WaitGroup
	sends    sync.WaitGroup
	stopOnce sync.Once
}

type lokiEntry struct {
	time  time.Time
	level string
	line  string
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// NewLokiHandler creates a handler and starts its flush loop. Close must be
// called to push the remaining records.
func NewLokiHandler(opts LokiOptions, level slog.Leveler) (*LokiHandler, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("loki endpoint is required")
	}
	if level == nil {
		level = slog.LevelInfo
	}

	labels := make(map[string]string, len(opts.Labels)+1)
	for k, v := range opts.Labels {
		labels[k] = v
	}
	if _, ok := labels["host"]; !ok {
		if hostname, err := os.Hostname(); err == nil {
			labels["host"] = hostname
		}
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	interval := opts.FlushInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	sink := &lokiSink{
		url:       strings.TrimSuffix(opts.Endpoint, "/") + lokiPushPath,
		labels:    labels,
		batchSize: batchSize,
		client:    client,
		buffer:    make([]lokiEntry, 0, batchSize),
		done:      make(chan struct{}),
	}
	sink.loop.Add(1)
	go sink.flushLoop(interval)

	return &LokiHandler{sink: sink, level: level}, nil
}

// Enabled reports whether the handler handles records at the given level.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle buffers the record and pushes the batch once it is full.
// Records arriving after Close are dropped.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	h.sink.add(lokiEntry{
		time:  r.Time,
		level: levelString(r.Level),
		line:  h.format(r),
	})
	return nil
}

func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		merged = append(merged, a)
	}
	clone := *h
	clone.attrs = merged
	return &clone
}

func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// Close stops the flush loop, pushes what is buffered and waits for
// in-flight pushes. It is safe to call more than once.
func (h *LokiHandler) Close() error {
	s := h.sink
	s.stopOnce.Do(func() {
		close(s.done)
		s.loop.Wait()

		s.mu.Lock()
		s.closed = true
		s.flushLocked()
		s.mu.Unlock()
	})
	s.sends.Wait()
	return nil
}

// format renders the record as logfmt: level=info msg="..." k=v
func (h *LokiHandler) format(r slog.Record) string {
	var buf bytes.Buffer
	buf.WriteString("level=")
	buf.WriteString(levelString(r.Level))
	buf.WriteString(" msg=")
	buf.WriteString(strconv.Quote(r.Message))

	write := func(a slog.Attr) {
		if a.Key == "" {
			return
		}
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(a.Value))
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		write(a)
		return true
	})
	return buf.String()
}

func (s *lokiSink) add(e lokiEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.buffer = append(s.buffer, e)
	if len(s.buffer) >= s.batchSize {
		s.flushLocked()
	}
}

func (s *lokiSink) flushLoop(interval time.Duration) {
	defer s.loop.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.flushLocked()
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// flushLocked hands the buffer to a push goroutine, one stream per level.
// s.mu must be held.
func (s *lokiSink) flushLocked() {
	if len(s.buffer) == 0 {
		return
	}

	byLevel := make(map[string]*lokiStream)
	var order []string
	for _, e := range s.buffer {
		stream, ok := byLevel[e.level]
		if !ok {
			labels := make(map[string]string, len(s.labels)+1)
			for k, v := range s.labels {
				labels[k] = v
			}
			labels["level"] = e.level
			stream = &lokiStream{Stream: labels}
			byLevel[e.level] = stream
			order = append(order, e.level)
		}
		stream.Values = append(stream.Values, [2]string{strconv.FormatInt(e.time.UnixNano(), 10), e.line})
	}
	s.buffer = s.buffer[:0]

	push := lokiPush{Streams: make([]lokiStream, 0, len(order))}
	for _, level := range order {
		push.Streams = append(push.Streams, *byLevel[level])
	}

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		_ = s.send(push)
	}()
}

// send posts one batch. Failures are dropped; logging them would feed back
// into this handler.
func (s *lokiSink) send(push lokiPush) error {
	body, err := json.Marshal(push)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	return nil
}
