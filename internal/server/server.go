// Package server exposes the document store over HTTP so that `hydro` clients
// in hybrid mode have a remote to sync with.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fakeyudi/hydro/internal/docstore"
	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/remote"
)

// maxBodyBytes caps an uploaded document.
const maxBodyBytes = 1 << 20

// Documents is the storage the server reads and replaces.
type Documents interface {
	Get(key string) (*docstore.Document, error)
	Put(key string, st hydration.State) (int64, error)
}

// HealthJSON is the body of GET /health.
type HealthJSON struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Revision      int64  `json:"revision"`
}

// Server serves the hydration document over HTTP.
type Server struct {
	httpServer *http.Server
	docs       Documents
	historyCap int
	started    time.Time
}

// New creates a Server on addr backed by docs. Uploaded documents are
// sanitized with historyLimit before they are stored.
func New(addr string, docs Documents, historyLimit int) *Server {
	s := &Server{docs: docs, historyCap: historyLimit, started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+remote.DocumentPath, s.handleGet)
	mux.HandleFunc("POST "+remote.DocumentPath, s.handlePut)
	mux.HandleFunc("PUT "+remote.DocumentPath, s.handlePut)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(docstore.DefaultKey)
	if errors.Is(err, docstore.ErrNotFound) {
		http.Error(w, "no state stored", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("read document", "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Revision", strconv.FormatInt(doc.Revision, 10))
	json.NewEncoder(w).Encode(doc.State)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "document too large", http.StatusRequestEntityTooLarge)
		return
	}
	var st hydration.State
	if err := json.Unmarshal(body, &st); err != nil {
		http.Error(w, "invalid JSON document", http.StatusBadRequest)
		return
	}

	rev, err := s.docs.Put(docstore.DefaultKey, hydration.Sanitize(st, s.historyCap))
	if err != nil {
		slog.Error("store document", "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	slog.Debug("document stored", "revision", rev, "last_update", st.LastUpdate)
	w.Header().Set("X-Revision", strconv.FormatInt(rev, 10))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := HealthJSON{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if doc, err := s.docs.Get(docstore.DefaultKey); err == nil {
		h.Revision = doc.Revision
	} else if !errors.Is(err, docstore.ErrNotFound) {
		h.Status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start))
	})
}
