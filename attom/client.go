package attom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"casa_subastas/config"
)

const userAgent = "Tu Casa en Subasta/1.0"

var (
	// ErrMissingAPIKey means the sync subsystem cannot be used at all.
	ErrMissingAPIKey = errors.New("ATTOM_API_KEY is required")

	// ErrUpstreamAuth is a credential or subscription problem (401/403). It is
	// never masked by the fallback tiers.
	ErrUpstreamAuth = errors.New("ATTOM API access issue: verify API key and subscription")

	ErrAllTiersFailed = errors.New("all ATTOM tiers failed")
)

// StatusError is a non-2xx response other than 401/403.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ATTOM API error %s: %d - %s", e.Endpoint, e.StatusCode, e.Body)
}

// Recorder receives upstream request outcomes. metrics.Metrics implements it.
type Recorder interface {
	UpstreamRequest(source, endpoint, outcome string)
	FallbackTier(tier string)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	recorder   Recorder
	strategies []Strategy

	now  func() time.Time
	rand func() float64
}

type Option func(*Client)

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithClock replaces the time and randomness sources used for synthesized fields.
func WithClock(now func() time.Time, rnd func() float64) Option {
	return func(c *Client) {
		c.now = now
		c.rand = rnd
	}
}

// WithStrategies replaces the default fallback chain.
func WithStrategies(s ...Strategy) Option {
	return func(c *Client) { c.strategies = s }
}

// NewClient creates a client. A missing API key returns ErrMissingAPIKey.
func NewClient(cfg config.AttomConfig, httpClient *http.Client, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		now:        time.Now,
		rand:       rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.strategies == nil {
		demo, err := NewDemoDataset(c.now, c.rand)
		if err != nil {
			return nil, err
		}
		c.strategies = []Strategy{
			&SnapshotStrategy{client: c},
			&EnhancedSearchStrategy{client: c},
		}
		if cfg.DemoFallback {
			c.strategies = append(c.strategies, demo)
		}
	}

	return c, nil
}

// FetchForeclosureProperties tries each strategy in order and returns the
// first success. Auth failures and cancellation stop the chain.
func (c *Client) FetchForeclosureProperties(ctx context.Context, q Query) (*Response, error) {
	q = q.normalized()

	var lastErr error
	for i, s := range c.strategies {
		resp, err := s.Fetch(ctx, q)
		if err == nil {
			c.recordTier(s.Name())
			return resp, nil
		}
		if errors.Is(err, ErrUpstreamAuth) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		if i < len(c.strategies)-1 {
			log.Printf("ATTOM %s unavailable, falling back: %v", s.Name(), err)
		}
	}

	if lastErr == nil {
		return nil, ErrAllTiersFailed
	}
	return nil, fmt.Errorf("%w: %w", ErrAllTiersFailed, lastErr)
}

// SearchProperties queries the basic property endpoint without enhancement.
func (c *Client) SearchProperties(ctx context.Context, q Query) (*Response, error) {
	return c.get(ctx, "/property/address", q.normalized().params())
}

// GetPropertyDetail returns one property by ATTOM id, or nil when none matched.
func (c *Client) GetPropertyDetail(ctx context.Context, id string) (*Property, error) {
	params := url.Values{}
	params.Set("id", id)

	resp, err := c.get(ctx, "/property/detail", params)
	if err != nil {
		return nil, err
	}
	if len(resp.Property) == 0 {
		return nil, nil
	}
	if err := resp.Property[0].Err(); err != nil {
		return nil, err
	}
	return &resp.Property[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	params.Set("apikey", c.apiKey)
	u.RawQuery = params.Encode()

	log.Printf("ATTOM API Request: %s", c.redact(u.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, "network_error")
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("ATTOM API Error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.record(endpoint, "auth_error")
			log.Println("API access issue - please verify your ATTOM Data subscription and API key")
			return nil, fmt.Errorf("%w: status %d", ErrUpstreamAuth, resp.StatusCode)
		}
		c.record(endpoint, "http_"+strconv.Itoa(resp.StatusCode))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.record(endpoint, "decode_error")
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	c.record(endpoint, "ok")
	return &out, nil
}

func (c *Client) redact(s string) string {
	return strings.ReplaceAll(s, url.QueryEscape(c.apiKey), "API_KEY_HIDDEN")
}

func (c *Client) record(endpoint, outcome string) {
	if c.recorder != nil {
		c.recorder.UpstreamRequest("attom", endpoint, outcome)
	}
}

func (c *Client) recordTier(tier string) {
	if c.recorder != nil {
		c.recorder.FallbackTier(tier)
	}
}

func (q Query) params() url.Values {
	v := url.Values{}
	if q.State != "" {
		v.Set("state", q.State)
	}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.ZipCode != "" {
		v.Set("postalcode", q.ZipCode)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pagesize", strconv.Itoa(q.PageSize))
	return v
}
