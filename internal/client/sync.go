package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mzalewski/devclock/internal/realtime"
	"github.com/mzalewski/devclock/pkg/api"
	realtimeTypes "github.com/mzalewski/devclock/pkg/realtime"
)

const (
	syncMinBackoff   = time.Second
	syncMaxBackoff   = 30 * time.Second
	syncPollInterval = 15 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Sync keeps a live local copy of the project list. While the websocket
// is up, every snapshot or event replaces the whole list; while it is
// down, Sync falls back to REST polling and keeps retrying the dial with
// capped exponential backoff.
type Sync struct {
	client *Client
	logger *slog.Logger

	pollInterval time.Duration
	minBackoff   time.Duration
	maxBackoff   time.Duration

	mu        sync.RWMutex
	projects  []api.ProjectResponse
	connected bool
	updated   chan struct{}
}

func NewSync(c *Client, logger *slog.Logger) *Sync {
	return &Sync{
		client:       c,
		logger:       logger,
		pollInterval: syncPollInterval,
		minBackoff:   syncMinBackoff,
		maxBackoff:   syncMaxBackoff,
		updated:      make(chan struct{}, 1),
	}
}

// Projects returns a copy of the current list.
func (s *Sync) Projects() []api.ProjectResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.ProjectResponse, len(s.projects))
	copy(out, s.projects)
	return out
}

// Connected reports whether the push channel is currently up.
func (s *Sync) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Updated signals after each list replacement. The channel is never
// closed and signals coalesce.
func (s *Sync) Updated() <-chan struct{} {
	return s.updated
}

// Refresh replaces the list from the REST endpoint.
func (s *Sync) Refresh(ctx context.Context) error {
	projects, err := s.client.ListProjects(ctx)
	if err != nil {
		return err
	}
	s.replace(projects)
	return nil
}

// Run blocks until ctx is done, maintaining the websocket subscription.
func (s *Sync) Run(ctx context.Context) error {
	go s.pollLoop(ctx)

	backoff := s.minBackoff
	for {
		err := s.connectAndRead(ctx)
		if s.Connected() {
			// The attempt got as far as subscribing, so the next retry
			// starts from the short interval again.
			backoff = s.minBackoff
		}
		s.setConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("realtime connection lost", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

// pollLoop polls over REST while the push channel is down, so the list
// keeps moving even without events.
func (s *Sync) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Connected() {
				continue
			}
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("poll fallback failed", "error", err)
			}
		}
	}
}

func (s *Sync) connectAndRead(ctx context.Context) error {
	wsURL, err := s.websocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(realtimeTypes.ClientEnvelope{
		Type:   realtimeTypes.ClientMessageTypeSubscribe,
		Topics: []string{realtime.TopicProjectsState},
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.setConnected(true)

	// Unblock ReadJSON on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var msg realtimeTypes.ServerEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case realtimeTypes.ServerMessageTypeSnapshot, realtimeTypes.ServerMessageTypeEvent:
			if msg.Topic != realtime.TopicProjectsState {
				continue
			}
			projects, err := decodeProjectsPayload(msg.Payload)
			if err != nil {
				s.logger.Warn("bad realtime payload", "error", err)
				continue
			}
			s.replace(projects)
		case realtimeTypes.ServerMessageTypeError:
			s.logger.Warn("realtime server error", "message", msg.Message)
		case realtimeTypes.ServerMessageTypePong:
		}
	}
}

func (s *Sync) websocketURL() (string, error) {
	u, err := url.Parse(s.client.BaseURL())
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/realtime"
	return u.String(), nil
}

func (s *Sync) replace(projects []api.ProjectResponse) {
	s.mu.Lock()
	s.projects = projects
	s.mu.Unlock()

	select {
	case s.updated <- struct{}{}:
	default:
	}
}

func (s *Sync) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func decodeProjectsPayload(payload any) ([]api.ProjectResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var projects []api.ProjectResponse
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
