// Package engine owns the authoritative hydration record. It builds the record
// at startup from the local cache and the remote store, and is the only
// writer afterwards.
//
// Writers are serialized by a mutex. Every change builds a fresh State and
// publishes it through an atomic pointer, so readers never observe a
// half-applied update and never block a writer.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/status"
)

// DefaultGuard is the minimum interval between accepted intake records.
const DefaultGuard = 600 * time.Millisecond

var (
	// ErrBusy is returned when an intake arrives inside the guard window of
	// the previous one. Callers treat it as a silent no-op.
	ErrBusy = errors.New("another intake is still being recorded")

	// ErrInvalidAmount is returned for a non-positive or non-finite amount.
	ErrInvalidAmount = errors.New("intake amount must be a positive number of milliliters")

	// ErrInvalidGoal is returned for a non-positive or non-finite goal.
	ErrInvalidGoal = errors.New("goal must be a positive number of liters")
)

// Sink receives every committed record. syncer.Scheduler implements it.
type Sink interface {
	Changed(st hydration.State)
	Mirror(st hydration.State)
}

// Options configures reconciliation and mutation. Zero values select defaults.
type Options struct {
	Goal          float64 // goal for a fresh record
	HistoryLimit  int
	Guard         time.Duration
	Policy        hydration.StreakPolicy
	RemoteTimeout time.Duration
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Goal <= 0 {
		o.Goal = hydration.DefaultGoal
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = hydration.DefaultHistoryLimit
	}
	if o.Guard <= 0 {
		o.Guard = DefaultGuard
	}
	if o.Policy == "" {
		o.Policy = hydration.DefaultStreakPolicy
	}
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = DefaultRemoteTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Intake describes a drink to record.
type Intake struct {
	AmountMl float64
	Label    string
	Icon     string
	Category string
}

// Engine is the single owner of the hydration record.
type Engine struct {
	opts Options
	sink Sink

	mu        sync.Mutex // serializes writers
	busyUntil time.Time

	cur atomic.Pointer[hydration.State]
}

// New creates an Engine publishing initial. sink may be nil.
func New(initial hydration.State, sink Sink, opts Options) *Engine {
	e := &Engine{opts: opts.withDefaults(), sink: sink}
	st := hydration.Clone(initial)
	e.cur.Store(&st)
	return e
}

// Open reconciles the persisted records, publishes the result, sets the
// tracker's initial status and writes the outcome back. The cache is always
// written. The remote is written only when it was reachable and is missing,
// behind the result, repaired, or rolled over. An unreachable remote may hold
// a newer document than the cache, so it is left alone until a mutation.
func Open(ctx context.Context, src Sources, sink Sink, tracker *status.Tracker, opts Options) (*Engine, Outcome) {
	out := Reconcile(ctx, src, opts)
	if tracker != nil {
		tracker.Set(out.Status, nil)
	}
	e := New(out.State, sink, opts)
	if sink != nil {
		if needsPush(out) {
			sink.Changed(out.State)
		} else {
			sink.Mirror(out.State)
		}
	}
	return e, out
}

func needsPush(out Outcome) bool {
	switch {
	case out.Status == status.Offline:
		return false
	case out.RolledOver:
		return true
	case out.Source == SourceRemote:
		return out.Repaired
	}
	return true
}

// State returns a copy of the authoritative record.
func (e *Engine) State() hydration.State {
	return hydration.Clone(*e.cur.Load())
}

// commit publishes next and hands it to the sink. Caller holds e.mu.
func (e *Engine) commit(next hydration.State) {
	e.cur.Store(&next)
	if e.sink != nil {
		e.sink.Changed(hydration.Clone(next))
	}
}

// RecordIntake adds a drink to today's record.
//
// Only one intake is accepted per guard window; a second call inside it
// returns ErrBusy and changes nothing. If the day has turned since the last
// write, the rollover is applied before the drink is added.
func (e *Engine) RecordIntake(in Intake) (hydration.IntakeEvent, error) {
	if !hydration.ValidAmount(in.AmountMl) {
		return hydration.IntakeEvent{}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	if now.Before(e.busyUntil) {
		slog.Debug("intake ignored inside guard window", "amount_ml", in.AmountMl)
		return hydration.IntakeEvent{}, ErrBusy
	}
	e.busyUntil = now.Add(e.opts.Guard)

	cur := *e.cur.Load()
	next, rolled := hydration.Rollover(cur, now, e.opts.Policy)
	if rolled {
		slog.Info("day rolled over before intake", "streak", next.Streak)
	}

	ev := hydration.NewEvent(now, in.AmountMl, in.Label, in.Icon, in.Category)
	next.CurrentAmount = hydration.AddLiters(next.CurrentAmount, in.AmountMl)
	next.History = hydration.PrependEvent(next.History, ev, e.opts.HistoryLimit)
	next.LastUpdate = now.UnixMilli()

	e.commit(next)
	slog.Info("intake recorded", "id", ev.ID, "amount_ml", ev.Amount, "total_l", next.CurrentAmount)
	return ev, nil
}

// SetGoal changes the daily goal in liters.
func (e *Engine) SetGoal(liters float64) error {
	if !hydration.ValidGoal(liters) {
		return ErrInvalidGoal
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	next, _ := hydration.Rollover(hydration.Clone(*e.cur.Load()), now, e.opts.Policy)
	next.Goal = liters
	next.LastUpdate = now.UnixMilli()
	e.commit(next)
	slog.Info("goal changed", "goal_l", liters)
	return nil
}

// Refresh applies the daily rollover if the calendar day has changed since the
// last write. It reports whether the record changed.
func (e *Engine) Refresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, rolled := hydration.Rollover(*e.cur.Load(), e.opts.Now(), e.opts.Policy)
	if !rolled {
		return false
	}
	e.commit(next)
	slog.Info("day rolled over", "streak", next.Streak)
	return true
}

// Adopt replaces the record with st if st is strictly newer, for example when
// another process wrote the cache. The adopted record is not written back
// unless it needed a rollover. It reports whether the record changed.
func (e *Engine) Adopt(st hydration.State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st.LastUpdate <= e.cur.Load().LastUpdate {
		return false
	}
	next := hydration.Sanitize(st, e.opts.HistoryLimit)
	next, rolled := hydration.Rollover(next, e.opts.Now(), e.opts.Policy)
	if rolled {
		e.commit(next)
	} else {
		e.cur.Store(&next)
	}
	slog.Info("adopted newer state", "amount", next.CurrentAmount, "last_update", next.LastUpdate)
	return true
}
