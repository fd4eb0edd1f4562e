package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/config"
	"github.com/fakeyudi/hydro/internal/engine"
	"github.com/fakeyudi/hydro/internal/notify"
	"github.com/fakeyudi/hydro/internal/remote"
	"github.com/fakeyudi/hydro/internal/status"
	"github.com/fakeyudi/hydro/internal/syncer"
)

// app holds the wired components shared by the subcommands that touch the
// hydration record.
type app struct {
	cfg     config.Config
	local   cache.Store
	remote  remote.Client // nil in local-only mode
	tracker *status.Tracker
	pub     notify.Publisher // nil without a broker
	sched   *syncer.Scheduler
	eng     *engine.Engine
	outcome engine.Outcome
}

// newApp opens the cache, connects the optional remote and broker, and
// reconciles the record. It never fails because the remote is unreachable.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	local, err := cache.NewStore(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	a := &app{
		cfg:     cfg,
		local:   local,
		tracker: status.NewTracker(cfg.Mode()),
	}

	if cfg.Mode() == status.Hybrid {
		rc, err := remote.NewHTTPClient(cfg.RemoteURL, cfg.RemoteTimeout())
		if err != nil {
			return nil, fmt.Errorf("remote url: %w", err)
		}
		a.remote = rc
	}

	var notifier syncer.Notifier
	if cfg.MQTTBroker != "" {
		pub, err := notify.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTTopic, cfg.RemoteTimeout())
		if err != nil {
			slog.Warn("mqtt broadcast disabled", "broker", cfg.MQTTBroker, "err", err)
		} else {
			a.pub = pub
			notifier = pub
		}
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a.sched = syncer.New(local, a.remote, notifier, a.tracker, syncer.Options{
		Debounce: cfg.Debounce(),
		Timeout:  cfg.RemoteTimeout(),
	})
	a.eng, a.outcome = engine.Open(ctx, engine.Sources{Local: local, Remote: a.remote}, a.sched, a.tracker, engine.Options{
		Goal:          cfg.Goal,
		HistoryLimit:  cfg.HistoryLimit,
		Guard:         cfg.Guard(),
		Policy:        policy,
		RemoteTimeout: cfg.RemoteTimeout(),
	})
	slog.Debug("state reconciled",
		"source", a.outcome.Source,
		"status", a.outcome.Status,
		"remote", a.outcome.Remote,
		"rolled_over", a.outcome.RolledOver)
	return a, nil
}

// Close flushes any pending remote write, then stops the scheduler and the
// broker connection. The flush error is returned for display only; the
// record is already safe in the cache.
func (a *app) Close(ctx context.Context) error {
	err := a.sched.Flush(ctx)
	a.sched.Close()
	if a.pub != nil {
		if cerr := a.pub.Close(); cerr != nil {
			slog.Warn("closing mqtt publisher", "err", cerr)
		}
	}
	return err
}

// watchCache adopts records that other processes write to the cache. Our own
// writes come back through the watcher too; Adopt ignores them because they
// are not newer than the current record.
func watchCache(ctx context.Context, a *app) error {
	return cache.Watch(ctx, a.local.Path(), func() {
		st, err := a.local.Load()
		if err != nil {
			slog.Debug("cache reload skipped", "err", err)
			return
		}
		a.eng.Adopt(*st)
	})
}
