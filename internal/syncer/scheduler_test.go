package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/hydro/internal/cache"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/notify"
	"github.com/fakeyudi/hydro/internal/remote"
	"github.com/fakeyudi/hydro/internal/status"
)

// countingStore wraps a disk store and counts saves.
type countingStore struct {
	cache.Store
	mu    sync.Mutex
	saves int
}

func (c *countingStore) Save(st *hydration.State) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.Store.Save(st)
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func newLocal(t *testing.T) *countingStore {
	t.Helper()
	s, err := cache.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return &countingStore{Store: s}
}

func stateWith(amount float64) hydration.State {
	st := hydration.Default(time.Now(), 2)
	st.CurrentAmount = amount
	return st
}

const fast = 30 * time.Millisecond

func TestChangedWritesLocalEveryTime(t *testing.T) {
	local := newLocal(t)
	s := New(local, nil, nil, status.NewTracker(status.LocalOnly), Options{Debounce: fast})
	defer s.Close()

	for i := 1; i <= 5; i++ {
		s.Changed(stateWith(float64(i) / 10))
	}
	assert.Equal(t, 5, local.count())

	loaded, err := local.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, loaded.CurrentAmount)
}

func TestDebounceCoalescesRemoteWrites(t *testing.T) {
	local := newLocal(t)
	rc := remote.NewFake(nil)
	tr := status.NewTracker(status.Hybrid)
	s := New(local, rc, nil, tr, Options{Debounce: fast})
	defer s.Close()

	for i := 1; i <= 5; i++ {
		s.Changed(stateWith(float64(i) / 10))
	}

	require.Eventually(t, func() bool { return len(rc.Pushes()) == 1 }, 2*time.Second, 5*time.Millisecond)
	// Nothing else should follow once the window has passed.
	time.Sleep(3 * fast)
	pushes := rc.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, 0.5, pushes[0].CurrentAmount, "remote should receive the latest state")
	assert.Equal(t, status.Synced, tr.Status())
	assert.Equal(t, 5, local.count())
}

func TestSeparatedChangesPushSeparately(t *testing.T) {
	rc := remote.NewFake(nil)
	s := New(newLocal(t), rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: fast})
	defer s.Close()

	s.Changed(stateWith(0.1))
	require.Eventually(t, func() bool { return len(rc.Pushes()) == 1 }, 2*time.Second, 5*time.Millisecond)
	s.Changed(stateWith(0.2))
	require.Eventually(t, func() bool { return len(rc.Pushes()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.2, rc.Pushes()[1].CurrentAmount)
}

func TestRemoteFailureMarksOffline(t *testing.T) {
	local := newLocal(t)
	rc := remote.NewFake(nil)
	rc.PushErr = errors.New("connection refused")
	tr := status.NewTracker(status.Hybrid)
	s := New(local, rc, nil, tr, Options{Debounce: fast})
	defer s.Close()

	s.Changed(stateWith(0.25))

	require.Eventually(t, func() bool { return tr.Snapshot().Failures == 1 }, 2*time.Second, 5*time.Millisecond)
	snap := tr.Snapshot()
	assert.Equal(t, status.Offline, snap.Status)
	assert.Contains(t, snap.LastError, "connection refused")

	loaded, err := local.Load()
	require.NoError(t, err)
	assert.Equal(t, 0.25, loaded.CurrentAmount, "local write must not depend on the remote")

	// The next change retries and recovers.
	rc.SetPushErr(nil)
	s.Changed(stateWith(0.5))
	require.Eventually(t, func() bool { return tr.Status() == status.Synced }, 2*time.Second, 5*time.Millisecond)
}

func TestSyncingWhileInFlight(t *testing.T) {
	rc := remote.NewFake(nil)
	rc.Block = make(chan struct{})
	tr := status.NewTracker(status.Hybrid)
	s := New(newLocal(t), rc, nil, tr, Options{Debounce: fast, Timeout: 5 * time.Second})

	s.Changed(stateWith(0.1))
	require.Eventually(t, func() bool { return tr.Status() == status.Syncing }, 2*time.Second, 5*time.Millisecond)

	close(rc.Block)
	require.Eventually(t, func() bool { return tr.Status() == status.Synced }, 2*time.Second, 5*time.Millisecond)
	s.Close()
}

func TestLocalOnlyNeverTouchesRemoteStatus(t *testing.T) {
	tr := status.NewTracker(status.LocalOnly)
	s := New(newLocal(t), nil, nil, tr, Options{Debounce: fast})
	defer s.Close()

	s.Changed(stateWith(0.3))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, status.Local, tr.Status())
}

func TestFlushPushesPendingImmediately(t *testing.T) {
	rc := remote.NewFake(nil)
	s := New(newLocal(t), rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: time.Hour})
	defer s.Close()

	s.Changed(stateWith(0.4))
	assert.Empty(t, rc.Pushes())

	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, rc.Pushes(), 1)
	assert.Equal(t, 0.4, rc.Pushes()[0].CurrentAmount)

	// Nothing pending: a second flush is a no-op.
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, rc.Pushes(), 1)
}

func TestFlushReturnsRemoteError(t *testing.T) {
	rc := remote.NewFake(nil)
	rc.PushErr = errors.New("503")
	s := New(newLocal(t), rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: time.Hour})
	defer s.Close()

	s.Changed(stateWith(0.4))
	assert.Error(t, s.Flush(context.Background()))
}

func TestPushNow(t *testing.T) {
	rc := remote.NewFake(nil)
	s := New(newLocal(t), rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: time.Hour})
	defer s.Close()

	require.NoError(t, s.PushNow(context.Background(), stateWith(1.1)))
	require.Len(t, rc.Pushes(), 1)
	assert.Equal(t, 1.1, rc.Pushes()[0].CurrentAmount)
}

func TestCloseCancelsPendingWrite(t *testing.T) {
	rc := remote.NewFake(nil)
	s := New(newLocal(t), rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: fast})

	s.Changed(stateWith(0.1))
	s.Close()
	time.Sleep(3 * fast)
	assert.Empty(t, rc.Pushes())

	// Changes after Close still reach the cache but schedule nothing.
	s.Changed(stateWith(0.2))
	time.Sleep(3 * fast)
	assert.Empty(t, rc.Pushes())
}

func TestNotifierReceivesFlushedState(t *testing.T) {
	n := notify.NewFakePublisher()
	tr := status.NewTracker(status.LocalOnly)
	s := New(newLocal(t), nil, n, tr, Options{Debounce: fast})
	defer s.Close()

	s.Changed(stateWith(0.1))
	s.Changed(stateWith(0.3))

	require.Eventually(t, func() bool { return len(n.Published()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0.3, n.Published()[0].CurrentAmount)
	assert.Equal(t, status.Local, tr.Status())
}

func TestMirrorDoesNotSchedule(t *testing.T) {
	local := newLocal(t)
	rc := remote.NewFake(nil)
	s := New(local, rc, nil, status.NewTracker(status.Hybrid), Options{Debounce: fast})
	defer s.Close()

	s.Mirror(stateWith(0.7))
	time.Sleep(3 * fast)
	assert.Empty(t, rc.Pushes())
	assert.Equal(t, 1, local.count())
}
