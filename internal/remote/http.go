package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// maxDocumentBytes caps how much of a response body is read.
const maxDocumentBytes = 1 << 20

// HTTPClient is the Client for a real endpoint.
type HTTPClient struct {
	url string
	hc  *http.Client
}

// NewHTTPClient builds a client for base + DocumentPath. timeout bounds every
// request in addition to the caller's context.
func NewHTTPClient(base string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse remote url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote url %q: scheme must be http or https", base)
	}
	full, err := url.JoinPath(base, DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("join remote url %q: %w", base, err)
	}
	return &HTTPClient{
		url: full,
		hc:  &http.Client{Timeout: timeout},
	}, nil
}

// URL returns the document address.
func (c *HTTPClient) URL() string { return c.url }

// Fetch performs GET on the document. 404 and 204 map to ErrEmpty, as does a
// 200 with an empty or null body.
func (c *HTTPClient) Fetch(ctx context.Context) (*hydration.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch remote state: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return nil, ErrEmpty
	default:
		return nil, &StatusError{Method: http.MethodGet, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read remote state: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, ErrEmpty
	}

	var st hydration.State
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode remote state: %w", err)
	}
	return &st, nil
}

// Push performs POST with the whole document. Any 2xx is success.
func (c *HTTPClient) Push(ctx context.Context, st hydration.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("push remote state: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodPost, Code: resp.StatusCode}
	}
	return nil
}

// Compile-time check that *HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
