package user

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"stripdemo/internal/config"
	apperrors "stripdemo/internal/errors"
	"stripdemo/internal/slogutil"
)

// Options are the collaborators of a Service
type Options struct {
	// BackendURL defaults to config.DefaultBackendURL
	BackendURL string
	// Poster defaults to an HTTPPoster without timeout
	Poster Poster
	Logger *slog.Logger
}

// Service owns one user draft and submits it on demand
type Service struct {
	backendURL string
	poster     Poster
	logger     *slog.Logger

	mu     sync.Mutex
	record Record
}

// NewService creates a Service with an empty record
func NewService(opts Options) *Service {
	if opts.BackendURL == "" {
		opts.BackendURL = config.DefaultBackendURL
	}
	if opts.Poster == nil {
		opts.Poster = NewHTTPPoster(0)
	}
	if opts.Logger == nil {
		opts.Logger = slogutil.NewDiscardLogger()
	}
	return &Service{
		backendURL: opts.BackendURL,
		poster:     opts.Poster,
		logger:     opts.Logger,
	}
}

// SetName sets the draft's name
func (s *Service) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Name = &name
}

// SetEmail sets the draft's email
func (s *Service) SetEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Email = &email
}

// SetRecord replaces the whole draft
func (s *Service) SetRecord(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = r.clone()
}

// Record returns a copy of the draft
func (s *Service) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.clone()
}

// UsersURL is the submission endpoint
func (s *Service) UsersURL() string {
	return strings.TrimSuffix(s.backendURL, "/") + "/users"
}

// Save submits a snapshot of the draft with one POST and returns at once.
// The outcome is rejected with BACKEND_REJECTED for a non-2xx reply and
// BACKEND_UNAVAILABLE when no reply arrives.
func (s *Service) Save(ctx context.Context) *Pending {
	p := newPending()

	body, err := json.Marshal(Payload{User: s.Record()})
	if err != nil {
		p.resolve(nil, apperrors.Wrap(apperrors.EncodeFailed, "failed to encode user", err))
		return p
	}

	url := s.UsersURL()
	go func() {
		resp, err := s.poster.Post(ctx, url, body)
		if err != nil {
			s.logger.Debug("User submission failed", "url", url, "error", err.Error())
			p.resolve(nil, apperrors.Wrap(apperrors.BackendUnavailable, "POST "+url, err))
			return
		}

		s.logger.Debug("User submitted", "url", url, "status", resp.StatusCode)
		if !resp.OK() {
			p.resolve(resp, apperrors.New(apperrors.BackendRejected,
				fmt.Sprintf("POST %s: backend answered %d", url, resp.StatusCode)).
				WithDetails(map[string]interface{}{"status": resp.StatusCode}))
			return
		}
		p.resolve(resp, nil)
	}()

	return p
}
