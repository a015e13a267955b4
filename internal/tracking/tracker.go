package tracking

import (
	"context"
	"log/slog"
	"sync"

	"fulfillment/internal/core/domain/model/kernel"

	"golang.org/x/sync/errgroup"
)

// Tracker owns at most one Session per customer channel. Sessions of different
// customers share nothing but the Fetcher.
type Tracker struct {
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewTracker creates an empty registry.
func NewTracker(fetcher Fetcher, cfg Config, logger *slog.Logger) *Tracker {
	return &Tracker{
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start begins tracking for customer, stopping a session already running for it.
func (t *Tracker) Start(ctx context.Context, customer kernel.ChannelRef, view View) (*Session, error) {
	session, err := NewSession(customer, t.fetcher, view, t.cfg, t.logger)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	previous := t.sessions[customer.String()]
	t.sessions[customer.String()] = session
	t.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}

	if err := session.Start(ctx); err != nil {
		t.remove(customer, session)
		return nil, err
	}
	return session, nil
}

// Session returns the running session for customer.
func (t *Tracker) Session(customer kernel.ChannelRef) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[customer.String()]
	return s, ok
}

// Stop ends tracking for customer. It reports false when nothing was tracked.
func (t *Tracker) Stop(customer kernel.ChannelRef) bool {
	t.mu.Lock()
	s, ok := t.sessions[customer.String()]
	delete(t.sessions, customer.String())
	t.mu.Unlock()

	if ok {
		s.Stop()
	}
	return ok
}

// StopAll stops every session concurrently and waits for them.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	sessions := t.sessions
	t.sessions = make(map[string]*Session)
	t.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			s.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

// Len returns the number of running sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Tracker) remove(customer kernel.ChannelRef, s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[customer.String()] == s {
		delete(t.sessions, customer.String())
	}
}
