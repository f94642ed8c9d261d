package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"netbox-geo/core/ratelimit"

	"go.uber.org/zap"
)

// Payload is one object body for a create or update call. Updates
// carry their remote id under the "id" key, as the NetBox bulk
// endpoints expect.
type Payload map[string]any

// ItemResult is the per-item outcome of a bulk call. Partial batch
// success is first-class: every input item gets exactly one result.
type ItemResult struct {
	// Index is the position of the item in the request slice.
	Index int
	// RemoteID is the NetBox object id on success.
	RemoteID int
	// Err is the classified failure, nil on success.
	Err error
}

// API is the remote surface the sync engine drives. Satisfied by
// *Client and by test fakes.
type API interface {
	List(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error)
	CreateBulk(ctx context.Context, path string, items []Payload) []ItemResult
	UpdateBulk(ctx context.Context, path string, items []Payload) []ItemResult
	DeleteBulk(ctx context.Context, path string, ids []int) []ItemResult
}

// Client is a rate-limited, retrying NetBox REST client.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
	log     *zap.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client. The limiter is shared with every other
// worker talking to the same NetBox instance.
func NewClient(cfg Config, limiter *ratelimit.Limiter, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		limiter: limiter,
		log:     log,
		sleep:   sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay computes the exponential backoff with jitter for the
// given attempt: base * 2^attempt capped at max, then jittered into
// [d/2, d) so synchronized workers fan out.
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := time.Duration(c.cfg.BaseDelayMS) * time.Millisecond
	max := time.Duration(c.cfg.MaxDelayMS) * time.Millisecond

	d := base << attempt
	if d > max || d <= 0 {
		d = max
	}
	half := d / 2
	return half + rand.N(half+1)
}

// do runs one logical API call with rate limiting and retries.
// tokens is the number of remote-visible records the call covers; it
// is charged on every attempt so retries stay inside the rate budget.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, tokens int) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("netbox: encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt - 1)
			if lastErr != nil && lastErr.RetryAfter > 0 {
				delay = lastErr.RetryAfter
			}
			c.log.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, transientError(err)
			}
		}

		if err := c.limiter.Acquire(ctx, tokens); err != nil {
			// A timed-out acquire is a retryable per-item failure,
			// not a fatal engine error.
			return nil, transientError(err)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("netbox: build request: %w", err)
		}
		req.Header.Set("Authorization", "Token "+c.cfg.Token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = transientError(err)
			c.log.Warn("request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				lastErr = transientError(readErr)
				continue
			}
			return respBody, nil
		}

		apiErr := classifyStatus(resp.StatusCode, truncate(string(respBody), 512), resp.Header.Get("Retry-After"))
		if !apiErr.Retryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		c.log.Warn("request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
		)
	}

	if lastErr == nil {
		lastErr = &APIError{Kind: ErrKindTransient, Message: "retries exhausted"}
	}
	return nil, lastErr
}

// listEnvelope is the NetBox pagination wrapper.
type listEnvelope struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// List fetches every page of a list endpoint using offset/limit
// pagination. Each page costs one rate token.
func (c *Client) List(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage
	offset := 0
	for {
		query := url.Values{}
		for k, vs := range params {
			query[k] = vs
		}
		query.Set("limit", fmt.Sprint(c.cfg.PageSize))
		query.Set("offset", fmt.Sprint(offset))

		body, err := c.do(ctx, http.MethodGet, path, query, nil, 1)
		if err != nil {
			return nil, err
		}

		var page listEnvelope
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("netbox: decode list page: %w", err)
		}
		all = append(all, page.Results...)

		offset += len(page.Results)
		if page.Next == nil || len(page.Results) == 0 || offset >= page.Count {
			return all, nil
		}
	}
}

// CreateBulk creates objects through the bulk endpoint and returns one
// result per input item. A whole-batch rejection is bisected down to
// single items before failures are attributed, so one bad record never
// sinks its batchmates.
func (c *Client) CreateBulk(ctx context.Context, path string, items []Payload) []ItemResult {
	return c.bulkWrite(ctx, http.MethodPost, path, items, 0)
}

// UpdateBulk updates objects through the bulk endpoint. Every payload
// must carry its remote id under the "id" key.
func (c *Client) UpdateBulk(ctx context.Context, path string, items []Payload) []ItemResult {
	return c.bulkWrite(ctx, http.MethodPatch, path, items, 0)
}

// DeleteBulk deletes objects by id through the bulk endpoint.
func (c *Client) DeleteBulk(ctx context.Context, path string, ids []int) []ItemResult {
	items := make([]Payload, len(ids))
	for i, id := range ids {
		items[i] = Payload{"id": id}
	}
	results := c.bulkWrite(ctx, http.MethodDelete, path, items, 0)
	for i := range results {
		if results[i].Err == nil {
			results[i].RemoteID = ids[results[i].Index]
		}
	}
	return results
}

// bulkWrite issues one bulk call and recursively bisects on
// whole-batch rejection. offset maps recursive sub-batch indices back
// to the caller's item positions.
func (c *Client) bulkWrite(ctx context.Context, method, path string, items []Payload, offset int) []ItemResult {
	if len(items) == 0 {
		return nil
	}

	body, err := c.do(ctx, method, path, nil, items, len(items))
	if err == nil {
		return c.bulkResults(method, body, items, offset)
	}

	// Transient failures already went through the retry loop; the
	// whole transport is struggling and a smaller batch would not
	// help, so attribute the failure to every item.
	if !IsPermanent(err) || len(items) == 1 {
		results := make([]ItemResult, len(items))
		for i := range items {
			results[i] = ItemResult{Index: offset + i, Err: err}
		}
		return results
	}

	// Permanent whole-batch rejection: halve and retry so only the
	// offending items end up failed.
	mid := len(items) / 2
	c.log.Debug("bisecting rejected batch",
		zap.String("path", path),
		zap.Int("size", len(items)),
	)
	left := c.bulkWrite(ctx, method, path, items[:mid], offset)
	right := c.bulkWrite(ctx, method, path, items[mid:], offset+mid)
	return append(left, right...)
}

// bulkResults parses a successful bulk response into per-item results.
func (c *Client) bulkResults(method string, body []byte, items []Payload, offset int) []ItemResult {
	results := make([]ItemResult, len(items))
	for i := range items {
		results[i] = ItemResult{Index: offset + i}
	}

	// Bulk deletes return no body.
	if method == http.MethodDelete || len(bytes.TrimSpace(body)) == 0 {
		return results
	}

	var created []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || len(created) != len(items) {
		for i := range results {
			results[i].Err = &APIError{
				Kind:    ErrKindTransient,
				Message: "bulk response did not match request size",
			}
		}
		return results
	}

	for i := range items {
		results[i].RemoteID = created[i].ID
	}
	return results
}

// Status fetches the NetBox status endpoint and returns the reported
// version. Used by connectivity checks; costs one rate token.
func (c *Client) Status(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/status/", nil, nil, 1)
	if err != nil {
		return "", err
	}
	var status struct {
		Version string `json:"netbox-version"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("netbox: decode status: %w", err)
	}
	return status.Version, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
