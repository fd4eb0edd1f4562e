package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/hydro/internal/hydration"
)

func newClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewHTTPClient(ts.URL, time.Second)
	require.NoError(t, err)
	return c
}

func sampleState() hydration.State {
	return hydration.State{
		CurrentAmount: 0.75,
		Goal:          2,
		Streak:        3,
		Mood:          "Glowing!",
		History:       []hydration.IntakeEvent{{ID: "1-a", Amount: 750, Timestamp: "08:15", Label: "Bottle", Icon: "water_full", Category: "Quick Add"}},
		LastUpdate:    1792315800000,
	}
}

func TestNewHTTPClientJoinsPath(t *testing.T) {
	c, err := NewHTTPClient("http://example.test/api/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api/state", c.URL())
}

func TestNewHTTPClientRejectsBadScheme(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.test", time.Second)
	assert.Error(t, err)
}

func TestFetchOK(t *testing.T) {
	want := sampleState()
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DocumentPath, r.URL.Path)
		json.NewEncoder(w).Encode(want)
	})

	got, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Equal(t, OutcomeOK, Classify(got, err))
}

func TestFetchEmpty(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"no content", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }},
		{"null body", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "null\n") }},
		{"empty body", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, tt.h)
			st, err := c.Fetch(context.Background())
			assert.ErrorIs(t, err, ErrEmpty)
			assert.Nil(t, st)
			assert.Equal(t, OutcomeEmpty, Classify(st, err))
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		st, err := c.Fetch(context.Background())
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadGateway, se.Code)
		assert.Equal(t, OutcomeUnreachable, Classify(st, err))
	})

	t.Run("malformed", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>captive portal</html>")
		})
		st, err := c.Fetch(context.Background())
		assert.Error(t, err)
		assert.Equal(t, OutcomeUnreachable, Classify(st, err))
	})

	t.Run("closed server", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()
		c, err := NewHTTPClient(ts.URL, time.Second)
		require.NoError(t, err)
		st, err := c.Fetch(context.Background())
		assert.Equal(t, OutcomeUnreachable, Classify(st, err))
	})

	t.Run("slow server", func(t *testing.T) {
		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer ts.Close()
		defer close(release)
		c, err := NewHTTPClient(ts.URL, 50*time.Millisecond)
		require.NoError(t, err)

		start := time.Now()
		st, err := c.Fetch(context.Background())
		assert.Equal(t, OutcomeUnreachable, Classify(st, err))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestPush(t *testing.T) {
	var got hydration.State
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	want := sampleState()
	require.NoError(t, c.Push(context.Background(), want))
	assert.Equal(t, want, got)
}

func TestPushRejected(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := c.Push(context.Background(), sampleState())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.MethodPost, se.Method)
	assert.Equal(t, 500, se.Code)
}

func TestFakeFetchAndPush(t *testing.T) {
	f := NewFake(nil)
	_, err := f.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)

	st := sampleState()
	require.NoError(t, f.Push(context.Background(), st))
	got, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, st, *got)
	assert.Len(t, f.Pushes(), 1)
	assert.Equal(t, 2, f.Fetches())

	f.SetPushErr(errors.New("down"))
	assert.Error(t, f.Push(context.Background(), st))
	assert.Len(t, f.Pushes(), 1)
}

func TestFakeBlockHonoursContext(t *testing.T) {
	f := NewFake(nil)
	f.Block = make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
