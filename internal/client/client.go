// Package client talks to a lamumu leaderboard server over HTTP. A *Client
// satisfies leaderboard.Store, so it can sit behind a fallback.Recorder.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lamumu/trivia/internal/leaderboard"
)

const defaultTimeout = 5 * time.Second

type Client struct {
	base string
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (5s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url %q", baseURL)
	}
	c := &Client{base: u.String(), http: &http.Client{Timeout: defaultTimeout}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// envelope is the {ok, data, error} body every endpoint answers with.
type envelope struct {
	OK    bool                `json:"ok"`
	Data  []leaderboard.Entry `json:"data,omitempty"`
	Error string              `json:"error,omitempty"`
}

// Submit posts run to /api/score. The server assigns the date.
func (c *Client) Submit(ctx context.Context, run leaderboard.Run) error {
	body := struct {
		Name   string `json:"name"`
		Score  int    `json:"score"`
		Streak int    `json:"streak"`
	}{run.Name, run.Score, run.Streak}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/score", toBody(body))
	if err != nil {
		return fmt.Errorf("failed to form request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to submit score: %w", err)
	}
	return nil
}

// Top fetches a page of the ranking from /api/leaderboard.
func (c *Client) Top(ctx context.Context, start, limit int) ([]leaderboard.Entry, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/leaderboard?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}
	env, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if env.Data == nil {
		return []leaderboard.Entry{}, nil
	}
	return env.Data, nil
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	dat, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{StatusCode: resp.StatusCode, err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(dat)}
	}

	var env envelope
	if err := json.Unmarshal(dat, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if !env.OK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: env.Error}
	}
	return &env, nil
}

// HTTPError is a non-2xx (or ok:false) answer from the server.
type HTTPError struct {
	StatusCode int
	Body       string
	err        error
}

func (h *HTTPError) Error() string {
	if h.err != nil {
		return fmt.Sprintf("[%d] failed to handle error: %v", h.StatusCode, h.err)
	}
	return fmt.Sprintf("[%d] error from server: %s", h.StatusCode, h.Body)
}

func (h *HTTPError) Unwrap() error { return h.err }

func toBody(v any) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return &errReader{err: err}
	}
	return &buf
}

type errReader struct {
	err error
}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, e.err
}
