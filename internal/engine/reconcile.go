package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/remote"
	"github.com/fakeyudi/hydro/internal/status"
)

// DefaultRemoteTimeout bounds the startup fetch.
const DefaultRemoteTimeout = 3 * time.Second

// Source names where the reconciled record came from.
type Source string

const (
	SourceLocal   Source = "local"
	SourceRemote  Source = "remote"
	SourceDefault Source = "default"
)

// Sources are the two persistence layers read at startup.
type Sources struct {
	Local  cache.Store
	Remote remote.Client // nil when no remote is configured
}

// Outcome is the result of reconciliation.
type Outcome struct {
	State      hydration.State
	Status     status.SyncStatus
	Source     Source
	Remote     remote.Outcome
	RolledOver bool
	// Repaired reports that the fetched remote document broke a record
	// invariant and was clamped by Sanitize.
	Repaired bool
}

type fetchResult struct {
	st  *hydration.State
	err error
}

// Reconcile merges the cached and remote records into the authoritative one.
//
// The newer record by LastUpdate wins, the remote only when strictly newer;
// with no cached record any remote document is taken. The daily rollover is
// applied to the winner. Reconcile always returns within about
// opts.RemoteTimeout, whatever the remote does.
func Reconcile(ctx context.Context, src Sources, opts Options) Outcome {
	opts = opts.withDefaults()
	now := opts.Now()

	local := loadLocal(src.Local, opts.HistoryLimit)

	out := Outcome{Status: status.Local, Remote: remote.OutcomeUnreachable}
	var doc *hydration.State
	if src.Remote != nil {
		st, err := fetchBounded(ctx, src.Remote, opts.RemoteTimeout)
		out.Remote = remote.Classify(st, err)
		switch out.Remote {
		case remote.OutcomeOK:
			clean := hydration.Sanitize(*st, opts.HistoryLimit)
			doc = &clean
			out.Repaired = !sameRecord(*st, clean)
			out.Status = status.Synced
		case remote.OutcomeEmpty:
			out.Status = status.Synced
		default:
			slog.Warn("remote state unavailable, continuing offline", "err", err)
			out.Status = status.Offline
		}
	}

	switch {
	case local == nil && doc != nil:
		out.State, out.Source = *doc, SourceRemote
	case local == nil:
		out.State, out.Source = hydration.Default(now, opts.Goal), SourceDefault
	case doc != nil && doc.LastUpdate > local.LastUpdate:
		out.State, out.Source = *doc, SourceRemote
	default:
		out.State, out.Source = *local, SourceLocal
	}

	out.State, out.RolledOver = hydration.Rollover(out.State, now, opts.Policy)

	slog.Info("state reconciled",
		"source", out.Source,
		"remote", out.Remote,
		"status", out.Status,
		"rolled_over", out.RolledOver,
		"amount", out.State.CurrentAmount,
		"streak", out.State.Streak)
	return out
}

// sameRecord compares two records field by field. A nil and an empty
// history are equal.
func sameRecord(a, b hydration.State) bool {
	return a.CurrentAmount == b.CurrentAmount &&
		a.Goal == b.Goal &&
		a.Streak == b.Streak &&
		a.Mood == b.Mood &&
		a.LastUpdate == b.LastUpdate &&
		slices.Equal(a.History, b.History)
}

func loadLocal(store cache.Store, limit int) *hydration.State {
	if store == nil {
		return nil
	}
	st, err := store.Load()
	if err != nil {
		if !errors.Is(err, cache.ErrNoState) {
			slog.Warn("ignoring unreadable local state", "path", store.Path(), "err", err)
		}
		return nil
	}
	clean := hydration.Sanitize(*st, limit)
	return &clean
}

// fetchBounded races the fetch against a timer so a client that ignores its
// context cannot hold up startup.
func fetchBounded(ctx context.Context, rc remote.Client, timeout time.Duration) (*hydration.State, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		st, err := rc.Fetch(ctx)
		done <- fetchResult{st: st, err: err}
	}()

	select {
	case r := <-done:
		return r.st, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
