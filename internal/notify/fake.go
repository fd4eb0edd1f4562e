package notify

import (
	"sync"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// FakePublisher records published states for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// States contains every record that was published.
	States []hydration.State

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the state.
func (f *FakePublisher) Publish(st hydration.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(st)
	if err != nil {
		return err
	}
	f.States = append(f.States, hydration.Clone(st))
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Published returns a copy of the recorded states.
func (f *FakePublisher) Published() []hydration.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]hydration.State, len(f.States))
	copy(out, f.States)
	return out
}
