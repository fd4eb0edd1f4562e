package remote

import (
	"context"
	"sync"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// Fake is an in-memory Client for tests. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// Doc is returned by Fetch; nil means ErrEmpty.
	Doc *hydration.State

	// FetchErr, if set, is returned by Fetch.
	FetchErr error

	// PushErr, if set, is returned by Push.
	PushErr error

	// Block, if non-nil, makes Fetch and Push wait until it is closed or ctx ends.
	// IgnoreContext makes them wait on Block alone.
	Block         chan struct{}
	IgnoreContext bool

	// Pushed holds every document accepted by Push, in order.
	Pushed []hydration.State

	fetches int
}

// NewFake creates a Fake holding doc.
func NewFake(doc *hydration.State) *Fake {
	return &Fake{Doc: doc}
}

func (f *Fake) wait(ctx context.Context) error {
	f.mu.Lock()
	block, ignore := f.Block, f.IgnoreContext
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	if ignore {
		<-block
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetch returns Doc, FetchErr or ErrEmpty.
func (f *Fake) Fetch(ctx context.Context) (*hydration.State, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	if f.Doc == nil {
		return nil, ErrEmpty
	}
	st := hydration.Clone(*f.Doc)
	return &st, nil
}

// Push records st and makes it the new Doc unless PushErr is set.
func (f *Fake) Push(ctx context.Context, st hydration.State) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return f.PushErr
	}
	st = hydration.Clone(st)
	f.Pushed = append(f.Pushed, st)
	f.Doc = &st
	return nil
}

// SetPushErr changes PushErr under the lock.
func (f *Fake) SetPushErr(err error) {
	f.mu.Lock()
	f.PushErr = err
	f.mu.Unlock()
}

// Pushes returns a copy of every accepted push.
func (f *Fake) Pushes() []hydration.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]hydration.State, len(f.Pushed))
	copy(out, f.Pushed)
	return out
}

// Fetches reports how many fetches completed.
func (f *Fake) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

var _ Client = (*Fake)(nil)
