// Package status tracks the sync state of the hydration record for display.
// It is written by the reconciler and the sync scheduler and read by the
// dashboard and CLI output.
package status

import (
	"sync"
	"time"
)

// Mode is fixed for the process lifetime by whether a remote endpoint is configured.
type Mode int

const (
	LocalOnly Mode = iota
	Hybrid
)

func (m Mode) String() string {
	if m == Hybrid {
		return "hybrid"
	}
	return "local-only"
}

// SyncStatus is the connectivity indicator shown next to the record.
type SyncStatus string

const (
	Synced  SyncStatus = "synced"
	Syncing SyncStatus = "syncing"
	Offline SyncStatus = "offline"
	Local   SyncStatus = "local"
)

// Snapshot is a point-in-time view of sync state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode      Mode
	Status    SyncStatus
	LastError string
	LastSync  time.Time // last successful remote write or fetch
	Pushes    int
	Failures  int
}

// Tracker holds mutable sync state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker for mode. LocalOnly trackers start, and stay, Local.
func NewTracker(mode Mode) *Tracker {
	s := Snapshot{Mode: mode, Status: Offline}
	if mode == LocalOnly {
		s.Status = Local
	}
	return &Tracker{snap: s, now: time.Now}
}

// Set records a status transition. err is kept for display when non-nil.
// In LocalOnly mode the status is terminal and Set is a no-op.
func (t *Tracker) Set(s SyncStatus, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.Mode == LocalOnly {
		return
	}
	t.snap.Status = s
	switch s {
	case Synced:
		t.snap.LastError = ""
		t.snap.LastSync = t.now()
	case Offline:
		if err != nil {
			t.snap.LastError = err.Error()
		}
	}
}

// PushDone counts a finished remote write.
func (t *Tracker) PushDone(err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.Failures++
	} else {
		t.snap.Pushes++
	}
	t.mu.Unlock()
}

// Snapshot returns a copy of the current sync state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Status is shorthand for Snapshot().Status.
func (t *Tracker) Status() SyncStatus {
	return t.Snapshot().Status
}
