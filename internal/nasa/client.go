// Package nasa provides the HTTP client for two public space-data services:
// NASA's Astronomy Picture of the Day (APOD) and the JPL SBDB close-approach
// data API (CAD).
//
// # Client Architecture
//
// The Client wraps Go's standard net/http.Client and provides:
//
//   - A single transport routine, [Client.GetResult]: one GET, 200 is decoded
//     as JSON, anything else becomes an [*HTTPError].
//   - Query builders on top of it: [Client.GetAPODImage] and
//     [Client.CloseApproach] / [Client.CloseApproachTable].
//   - Optional rate limiter: proactive client-side throttling via
//     golang.org/x/time/rate. The APOD DEMO_KEY is limited per hour.
//
// There is no retry. A failed call is returned to the caller as-is.
//
// # URL Construction
//
//	{APODURL}?api_key=...&date=...
//	{CADURL}?date-min=now&date-max=%2B60&dist-max=0.05&body=Earth&sort=date
//
// Query parameters are built with [Params], which drops unset values.
//
// # Thread Safety
//
// The Client is safe for concurrent use; calls share no mutable state.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/observability"
)

// Default service endpoints.
const (
	DefaultAPODURL = "https://api.nasa.gov/planetary/apod"
	DefaultCADURL  = "https://ssd-api.jpl.nasa.gov/cad.api"
)

// Client issues requests against the APOD and CAD services.
type Client struct {
	apodURL string
	cadURL  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithRateLimiter sets a client-side rate limiter.
func WithRateLimiter(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(math.Max(1, rps)))
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a client from the nasa config section. Empty URLs fall
// back to the public endpoints. A zero TimeoutSeconds keeps the net/http
// default of no timeout.
func NewClient(cfg config.NASAConfig, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apodURL: cfg.APODURL,
		cadURL:  cfg.CADURL,
		logger:  logger.With("component", "nasa-client"),
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
	if c.apodURL == "" {
		c.apodURL = DefaultAPODURL
	}
	if c.cadURL == "" {
		c.cadURL = DefaultCADURL
	}
	if cfg.RateLimitRPS > 0 {
		opts = append([]ClientOption{WithRateLimiter(cfg.RateLimitRPS)}, opts...)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetResult performs a single GET of endpoint with params and returns the
// decoded JSON object. A status other than 200 yields *HTTPError carrying
// the reason phrase and the request URL.
func (c *Client) GetResult(ctx context.Context, endpoint string, params *Params) (map[string]any, error) {
	reqURL := endpoint
	if params != nil && params.Len() > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		reqURL = endpoint + sep + params.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			observability.Metrics.APIErrorsTotal.WithLabelValues(http.MethodGet, "rate_limited").Inc()
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	path := req.URL.Path
	c.logger.Debug("fetching", "url", redactAPIKey(reqURL))

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.Metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, path).Inc()
	observability.Metrics.APILatency.WithLabelValues(http.MethodGet, path).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Metrics.APIErrorsTotal.WithLabelValues(http.MethodGet, "network").Inc()
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		observability.Metrics.APIErrorsTotal.WithLabelValues(http.MethodGet, strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
			URL:        req.URL.String(),
		}
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		observability.Metrics.APIErrorsTotal.WithLabelValues(http.MethodGet, "decode").Inc()
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}
	return result, nil
}

// GetAPODImage fetches the picture of the day, or of date (YYYY-MM-DD) when
// given. It returns nil, nil when the response carries no url.
func (c *Client) GetAPODImage(ctx context.Context, apiKey, date string) (*Image, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	params := NewParams().
		Set("api_key", apiKey).
		SetString("date", date)

	result, err := c.GetResult(ctx, c.apodURL, params)
	if err != nil {
		return nil, err
	}
	return imageFromResult(result), nil
}

// CloseApproach validates q and returns the decoded response as-is.
func (c *Client) CloseApproach(ctx context.Context, q CloseApproachQuery) (map[string]any, error) {
	params, err := q.Params()
	if err != nil {
		return nil, err
	}
	return c.GetResult(ctx, c.cadURL, params)
}

// CloseApproachTable validates q and returns the response's data rows
// labeled by its fields.
func (c *Client) CloseApproachTable(ctx context.Context, q CloseApproachQuery) (*Table, error) {
	result, err := c.CloseApproach(ctx, q)
	if err != nil {
		return nil, err
	}
	return TableFromResult(result)
}

// reasonPhrase extracts "Not Found" from a "404 Not Found" status line.
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// redactAPIKey hides the api_key value for logging.
func redactAPIKey(u string) string {
	i := strings.Index(u, "api_key=")
	if i < 0 {
		return u
	}
	j := strings.IndexByte(u[i:], '&')
	if j < 0 {
		return u[:i] + "api_key=REDACTED"
	}
	return u[:i] + "api_key=REDACTED" + u[i+j:]
}
