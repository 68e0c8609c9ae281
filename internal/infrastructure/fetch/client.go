package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DannyMang/theta/internal/infrastructure/config"
	"github.com/DannyMang/theta/internal/infrastructure/logging"
	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
	"github.com/DannyMang/theta/internal/infrastructure/resilience"
	"github.com/DannyMang/theta/internal/infrastructure/tracing"
)

var (
	ErrTransport   = errors.New("transport failure")
	ErrDecode      = errors.New("undecodable body")
	ErrBlockedHost = errors.New("host is blocked")
)

// Options configures a Client.
type Options struct {
	UserAgent         string
	Timeout           time.Duration // zero disables the client-side timeout
	MaxBodyBytes      int64
	BlockedHosts      []string // doublestar globs matched against the hostname
	RequestsPerSecond float64  // zero means unlimited
	BreakerFailures   uint32   // consecutive transport failures that open a host's breaker
	BreakerCooldown   time.Duration
	Transport         http.RoundTripper // nil uses the retryablehttp pooled transport
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:       "Theta/1.0",
		Timeout:         30 * time.Second,
		MaxBodyBytes:    10 << 20,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// OptionsFromConfig maps the fetch config section onto Options.
func OptionsFromConfig(cfg config.FetchConfig) Options {
	opts := DefaultOptions()
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	opts.Timeout = cfg.Timeout.Std()
	if cfg.MaxBodyBytes > 0 {
		opts.MaxBodyBytes = cfg.MaxBodyBytes
	}
	opts.BlockedHosts = cfg.BlockedHosts
	opts.RequestsPerSecond = cfg.RequestsPerSecond
	return opts
}

// Response is one fetched document.
type Response struct {
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code"`
	ContentType string        `json:"content_type"`
	Charset     string        `json:"charset"`
	Body        string        `json:"-"`
	Truncated   bool          `json:"truncated"`
	Duration    time.Duration `json:"duration"`
	Header      http.Header   `json:"-"`
}

// Client performs rate-limited, breaker-guarded fetches.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	opts    Options

	breakersMu sync.Mutex
	breakers   map[string]*resilience.Breaker

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewClient validates opts and builds a client.
func NewClient(opts Options) (*Client, error) {
	for _, pattern := range opts.BlockedHosts {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid blocked host pattern %q", pattern)
		}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultOptions().MaxBodyBytes
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = DefaultOptions().BreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = DefaultOptions().BreakerCooldown
	}

	transport := opts.Transport
	if transport == nil {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = 0
		retryClient.Logger = nil
		transport = retryClient.HTTPClient.Transport
	}

	restyClient := resty.New().
		SetTransport(transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", opts.UserAgent)

	limit := rate.Inf
	burst := 0
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		resty:    restyClient,
		limiter:  rate.NewLimiter(limit, burst),
		opts:     opts,
		breakers: make(map[string]*resilience.Breaker),
		logger:   logging.NewNop(),
	}, nil
}

// WithLogger sets the client logger
func (c *Client) WithLogger(logger *logging.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("fetch")
	}
	return c
}

// WithMetrics adds fetch metrics
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// UserAgent returns the default User-Agent.
func (c *Client) UserAgent() string {
	return c.opts.UserAgent
}

// FetchText implements content.Fetcher.
func (c *Client) FetchText(ctx context.Context, rawURL, userAgent string) (string, error) {
	resp, err := c.Fetch(ctx, rawURL, userAgent)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Fetch performs one GET. An empty userAgent uses the client default.
func (c *Client) Fetch(ctx context.Context, rawURL, userAgent string) (*Response, error) {
	timer := monitoring.NewTimer(c.metrics, "fetch")

	resp, err := c.fetch(ctx, rawURL, userAgent)
	if err != nil {
		kind := failureKind(err)
		timer.Stop(kind)
		if c.metrics != nil {
			c.metrics.RecordFetchFailure(kind)
		}
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	timer.Stop("success")
	c.logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.String("charset", resp.Charset),
		zap.Int("bytes", len(resp.Body)),
	)
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, rawURL, userAgent string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %v", ErrTransport, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrTransport, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrTransport)
	}
	if c.blocked(host) {
		return nil, fmt.Errorf("%w: %w: %s", ErrTransport, ErrBlockedHost, host)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", ErrTransport, err)
	}

	if userAgent == "" {
		userAgent = c.opts.UserAgent
	}

	start := time.Now()
	raw, err := resilience.Execute(c.breaker(host), func() (*resty.Response, error) {
		req := c.resty.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
		tracing.InjectHeaders(ctx, req.Header)
		return req.Get(u.String())
	})
	if err != nil {
		if raw != nil && raw.RawBody() != nil {
			raw.RawBody().Close()
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer raw.RawBody().Close()

	body, truncated, err := readLimited(raw.RawBody(), c.opts.MaxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	contentType := raw.Header().Get("Content-Type")
	text, charsetName, err := decodeBody(body, contentType)
	if err != nil {
		return nil, err
	}

	finalURL := u.String()
	if raw.RawResponse != nil && raw.RawResponse.Request != nil && raw.RawResponse.Request.URL != nil {
		finalURL = raw.RawResponse.Request.URL.String()
	}

	return &Response{
		URL:         finalURL,
		StatusCode:  raw.StatusCode(),
		ContentType: mediaType(contentType),
		Charset:     charsetName,
		Body:        text,
		Truncated:   truncated,
		Duration:    time.Since(start),
		Header:      raw.Header(),
	}, nil
}

func (c *Client) blocked(host string) bool {
	for _, pattern := range c.opts.BlockedHosts {
		if ok, _ := doublestar.Match(pattern, host); ok {
			return true
		}
	}
	return false
}

// breaker returns the breaker for host, creating it on first use.
func (c *Client) breaker(host string) *resilience.Breaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	if b, ok := c.breakers[host]; ok {
		return b
	}

	threshold := c.opts.BreakerFailures
	b := resilience.New(host, resilience.Settings{
		Timeout: c.opts.BreakerCooldown,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Info("fetch breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if c.metrics != nil {
				c.metrics.SetBreakerOpen(name, to == resilience.StateOpen)
			}
		},
	})
	c.breakers[host] = b
	return b
}

// BreakerState reports the breaker state for a host. Hosts never fetched
// are closed.
func (c *Client) BreakerState(host string) resilience.State {
	c.breakersMu.Lock()
	b, ok := c.breakers[host]
	c.breakersMu.Unlock()

	if !ok {
		return resilience.StateClosed
	}
	return b.State()
}

func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "breaker"
	case errors.Is(err, ErrBlockedHost):
		return "blocked"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "transport"
	}
}
