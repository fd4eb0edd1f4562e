// Package syncer persists every change to the hydration record: the local
// cache immediately, the remote store and the broadcast after a quiet period.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/remote"
	"github.com/fakeyudi/hydro/internal/status"
)

// Default timings.
const (
	DefaultDebounce = 1200 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// Notifier receives the record after each debounced flush.
type Notifier interface {
	Publish(st hydration.State) error
}

// Options tunes a Scheduler. Zero values select the defaults.
type Options struct {
	Debounce time.Duration // quiet period before a remote write
	Timeout  time.Duration // bound on a single remote write
}

// Scheduler writes each change to the cache and coalesces remote writes.
// Remote writes are serialized: at most one is in flight.
type Scheduler struct {
	local    cache.Store
	remote   remote.Client // nil in local-only mode
	notifier Notifier      // optional
	tracker  *status.Tracker
	opts     Options

	mu       sync.Mutex
	timer    *time.Timer
	pending  *hydration.State
	closed   bool
	inflight sync.WaitGroup

	pushMu sync.Mutex
}

// New creates a Scheduler. rc and n may be nil.
func New(local cache.Store, rc remote.Client, n Notifier, tracker *status.Tracker, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Scheduler{
		local:    local,
		remote:   rc,
		notifier: n,
		tracker:  tracker,
		opts:     opts,
	}
}

// Changed persists st to the cache right away and schedules a remote write.
// It never blocks on the network and never fails; errors are logged.
func (s *Scheduler) Changed(st hydration.State) {
	if err := s.local.Save(&st); err != nil {
		slog.Error("local cache write failed", "path", s.local.Path(), "err", err)
	}
	s.schedule(st)
}

// Mirror writes st to the cache without scheduling a remote write. Used when
// st just came from the remote.
func (s *Scheduler) Mirror(st hydration.State) {
	if err := s.local.Save(&st); err != nil {
		slog.Error("local cache write failed", "path", s.local.Path(), "err", err)
	}
}

func (s *Scheduler) schedule(st hydration.State) {
	if s.remote == nil && s.notifier == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = &st
	if s.timer == nil {
		s.timer = time.AfterFunc(s.opts.Debounce, s.fire)
		return
	}
	s.timer.Reset(s.opts.Debounce)
}

// take removes the pending state and registers an in-flight write.
// It returns nil when there is nothing to write or the scheduler is closed.
func (s *Scheduler) take() *hydration.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pending == nil {
		return nil
	}
	st := s.pending
	s.pending = nil
	s.inflight.Add(1)
	return st
}

func (s *Scheduler) fire() {
	st := s.take()
	if st == nil {
		return
	}
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	s.push(ctx, *st)
}

// push writes st to the remote and the notifier. Remote failures only move
// the status indicator; the next change retries.
func (s *Scheduler) push(ctx context.Context, st hydration.State) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	var err error
	if s.remote != nil {
		s.tracker.Set(status.Syncing, nil)
		err = s.remote.Push(ctx, st)
		s.tracker.PushDone(err)
		if err != nil {
			slog.Warn("remote sync failed", "err", err)
			s.tracker.Set(status.Offline, err)
		} else {
			slog.Debug("remote sync ok", "amount", st.CurrentAmount, "last_update", st.LastUpdate)
			s.tracker.Set(status.Synced, nil)
		}
	}
	if s.notifier != nil {
		if nerr := s.notifier.Publish(st); nerr != nil {
			slog.Warn("state broadcast failed", "err", nerr)
		}
	}
	return err
}

// Flush cancels the debounce timer and writes any pending state now. It
// returns the remote error, if any.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	st := s.take()
	if st == nil {
		return nil
	}
	defer s.inflight.Done()
	return s.push(ctx, *st)
}

// PushNow writes st to the remote immediately, bypassing the debounce.
func (s *Scheduler) PushNow(ctx context.Context, st hydration.State) error {
	s.schedule(st)
	return s.Flush(ctx)
}

// Close stops the timer, drops any unflushed remote write and waits for an
// in-flight one. Call Flush first for a final persist.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.inflight.Wait()
}
