package vecrank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/vecrank/internal/domain/feature"
	"github.com/kailas-cloud/vecrank/internal/version"
)

const defaultTimeout = 30 * time.Second

// Features is one (query, document) pair described by the ten relevance
// signals. Zero fields are sent as their defaults.
type Features = feature.Record

// Signal is a single relevance signal value.
type Signal = feature.Signal

// Bool encodes a boolean signal such as words_in_header as 0 or 1.
func Bool(b bool) Signal { return feature.Flag(b) }

// Client is the vecrank SDK entry point.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	obs       *observer
}

// New creates a Client for the service at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("vecrank: invalid base url %q", baseURL)
	}

	cfg := &clientConfig{
		userAgent: "vecrank-go/" + version.Version,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      cfg.httpClient,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

type textItem struct {
	Text string `json:"text"`
}

// Vectorize encodes each text into one vector per token window, in order.
func (c *Client) Vectorize(ctx context.Context, texts []string) (vecs [][][]float64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("vectorize", start, err) }()

	items := make([]textItem, len(texts))
	for i, t := range texts {
		items[i] = textItem{Text: t}
	}

	var resp struct {
		Vec [][][]float64 `json:"vec"`
	}
	if err = c.do(ctx, http.MethodPost, "/vectorize", items, &resp); err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	if len(resp.Vec) != len(texts) {
		return nil, fmt.Errorf("vectorize: got %d results for %d texts", len(resp.Vec), len(texts))
	}
	return resp.Vec, nil
}

// Rank scores each record. For models that return several values per
// record the last one (the positive class) is used.
func (c *Client) Rank(ctx context.Context, records []Features) (rel []float64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("rank", start, err) }()

	var resp struct {
		Rel []json.RawMessage `json:"rel"`
	}
	if err = c.do(ctx, http.MethodPost, "/rank", records, &resp); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if len(resp.Rel) != len(records) {
		return nil, fmt.Errorf("rank: got %d scores for %d records", len(resp.Rel), len(records))
	}

	rel = make([]float64, len(resp.Rel))
	for i, raw := range resp.Rel {
		if rel[i], err = decodeScore(raw); err != nil {
			return nil, fmt.Errorf("rank: score %d: %w", i, err)
		}
	}
	return rel, nil
}

func decodeScore(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var vs []float64
	if err := json.Unmarshal(raw, &vs); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(vs) == 0 {
		return 0, errors.New("empty score")
	}
	return vs[len(vs)-1], nil
}

// Ping checks service liveness.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.do(ctx, http.MethodGet, "/ping", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitReady polls /ping every interval until it succeeds or ctx is done.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotReady, lastErr)
		case <-ticker.C:
		}
	}
}

// do sends a JSON request and decodes the JSON response into out when it is
// non-nil. Statuses other than 2xx and accept produce an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, accept ...int) error {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok && !slices.Contains(accept, resp.StatusCode) {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{Status: status, Message: msg}
}
