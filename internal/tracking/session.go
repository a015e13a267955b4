package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/metrics"
	"fulfillment/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

var (
	// ErrSessionAlreadyStarted is returned by a second call to Session.Start.
	ErrSessionAlreadyStarted = errors.New("tracking session already started")

	// ErrSessionStopped is returned when starting a session that was stopped.
	ErrSessionStopped = errors.New("tracking session stopped")
)

// Session follows one customer's current order.
//
// A session polls immediately on Start and then every Config.PollInterval. The first
// active order returned by the Fetcher is tracked and the View is told about it only
// when its (order id, status) pair differs from the last one shown. At most one poll
// runs at a time; a tick that finds one in flight is skipped.
//
// A delivered order stays on the View until Config.AutoClearDelay elapses. A cancelled
// order is shown once and cleared at once. Neither ends the session: it returns to
// Idle and keeps polling, so the customer's next order is picked up without a new
// Start. Only Stop ends polling.
//
// Results are applied under a generation check: Stop, ClearOrder and the auto-clear
// bump the generation, so a poll that started before them is discarded.
type Session struct {
	customer kernel.ChannelRef
	fetcher  Fetcher
	view     View
	cfg      Config
	logger   *slog.Logger

	inFlight atomic.Bool

	mu           sync.Mutex
	state        State
	tracked      *Observation
	lastTerminal *Observation
	generation   uint64
	clearSeq     uint64
	clearTimer   *time.Timer
	started      bool
	stopped      bool
	cron         *cron.Cron
	ctx          context.Context
	cancel       context.CancelFunc

	timers sync.WaitGroup
}

// NewSession creates a session for customer that does nothing until Start.
//
// Parameters:
//   - customer: the channel whose active orders are followed
//   - fetcher: reads the order store, usually an orderapi.Client
//   - view: receives Show and Clear calls, serialized by the session
//   - cfg: poll and auto-clear timings, checked with Config.Validate
//
// Returns:
//   - *Session: idle and not yet polling
//   - error: errs.ErrValueIsRequired for a missing dependency, or the Config error
func NewSession(
	customer kernel.ChannelRef,
	fetcher Fetcher,
	view View,
	cfg Config,
	logger *slog.Logger,
) (*Session, error) {
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, errs.NewValueIsRequiredError("fetcher")
	}
	if view == nil {
		return nil, errs.NewValueIsRequiredError("view")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		customer: customer,
		fetcher:  fetcher,
		view:     view,
		cfg:      cfg,
		logger:   logger.With("component", "tracking_session", "customer_ref", customer.String()),
	}, nil
}

// Start runs the first poll synchronously and schedules the next ones.
// ctx bounds the lifetime of every fetch; Stop must still be called to release the scheduler.
//
// Returns:
//   - nil once polling is scheduled, whatever the first poll found
//   - ErrSessionAlreadyStarted on a second call
//   - ErrSessionStopped after Stop
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return ErrSessionStopped
	case s.started:
		s.mu.Unlock()
		return ErrSessionAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	if _, err := s.cron.AddFunc("@every "+s.cfg.PollInterval.String(), func() { s.poll() }); err != nil {
		s.cancel()
		s.mu.Unlock()
		return fmt.Errorf("schedule polls: %w", err)
	}
	s.mu.Unlock()

	s.poll()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.cron.Start()
	s.logger.Info("Tracking session started", "poll_interval", s.cfg.PollInterval.String())
	return nil
}

// Stop cancels the scheduler, any pending auto-clear and any fetch in flight, then waits
// for all of them to return. A poll completing afterwards is discarded. Stop is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.generation++
	s.stopAutoClear()
	if s.cancel != nil {
		s.cancel()
	}
	c := s.cron
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.timers.Wait()
	s.logger.Info("Tracking session stopped")
}

// Refresh polls now. It reports false when the poll was skipped.
func (s *Session) Refresh() bool {
	return s.poll() != metrics.PollSkipped
}

// ClearOrder drops the tracked order from view immediately and cancels a pending
// auto-clear. The session returns to Idle and keeps polling.
func (s *Session) ClearOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAutoClear()
	s.generation++
	if s.tracked != nil {
		s.clear()
	}
	s.state = Idle
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tracked returns the tracked order, ok is false when nothing is tracked.
func (s *Session) Tracked() (obs Observation, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracked == nil {
		return Observation{}, false
	}
	return *s.tracked, true
}

// Customer returns the channel reference the session tracks.
func (s *Session) Customer() kernel.ChannelRef {
	return s.customer
}

func (s *Session) poll() string {
	if !s.inFlight.CompareAndSwap(false, true) {
		metrics.RecordPoll(metrics.PollSkipped)
		return metrics.PollSkipped
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	if s.stopped || !s.started || s.state == AutoClearPending {
		s.mu.Unlock()
		metrics.RecordPoll(metrics.PollSkipped)
		return metrics.PollSkipped
	}
	generation := s.generation
	ctx := s.ctx
	var tracked *Observation
	if s.tracked != nil {
		t := *s.tracked
		tracked = &t
	}
	s.mu.Unlock()

	next, err := s.fetch(ctx, tracked)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result string
	switch {
	case s.stopped || generation != s.generation:
		result = metrics.PollSkipped
	case err != nil:
		s.logger.Warn("Tracking poll failed", "error", err)
		result = metrics.PollFailed
	default:
		result = s.apply(next)
	}

	metrics.RecordPoll(result)
	return result
}

// fetch returns the order to show next, nil when there is nothing to track.
func (s *Session) fetch(ctx context.Context, tracked *Observation) (*Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	active, err := s.fetcher.ActiveOrders(ctx, s.customer)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	if len(active) > 0 {
		obs := active[0]
		return &obs, nil
	}
	if tracked == nil {
		return nil, nil
	}

	// The tracked order left the active list: find out whether it finished.
	obs, err := s.fetcher.Order(ctx, tracked.OrderID)
	if err != nil {
		if !errors.Is(err, errs.ErrObjectNotFound) {
			s.logger.Warn("Tracked order lookup failed", "order_id", tracked.OrderID.String(), "error", err)
		}
		return nil, nil
	}
	if !obs.Status.IsTerminal() {
		return nil, nil
	}
	return &obs, nil
}

// apply runs with s.mu held.
func (s *Session) apply(next *Observation) string {
	if next == nil {
		if s.tracked == nil {
			return metrics.PollUnchanged
		}
		s.clear()
		return metrics.PollCleared
	}

	if s.tracked != nil && s.tracked.Same(*next) {
		s.tracked = next
		return metrics.PollUnchanged
	}
	if s.tracked == nil && s.lastTerminal != nil && s.lastTerminal.Same(*next) {
		return metrics.PollUnchanged
	}

	s.tracked = next
	s.view.Show(*next)

	switch next.Status {
	case order.Delivered:
		s.lastTerminal = next
		s.state = AutoClearPending
		s.scheduleAutoClear()
	case order.Cancelled:
		s.lastTerminal = next
		s.clear()
	default:
		s.state = Polling
	}
	return metrics.PollChanged
}

// scheduleAutoClear runs with s.mu held.
func (s *Session) scheduleAutoClear() {
	s.stopAutoClear()
	s.clearSeq++
	seq := s.clearSeq

	s.timers.Add(1)
	s.clearTimer = time.AfterFunc(s.cfg.AutoClearDelay, func() {
		defer s.timers.Done()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped || seq != s.clearSeq {
			return
		}
		s.clearTimer = nil
		s.generation++
		if s.tracked != nil {
			s.logger.Debug("Delivered order auto-cleared", "order_id", s.tracked.OrderID.String())
		}
		s.clear()
	})
}

// stopAutoClear runs with s.mu held.
func (s *Session) stopAutoClear() {
	s.clearSeq++
	if s.clearTimer != nil && s.clearTimer.Stop() {
		s.timers.Done()
	}
	s.clearTimer = nil
}

// clear runs with s.mu held.
func (s *Session) clear() {
	s.tracked = nil
	s.state = Idle
	s.view.Clear()
}
