package upstream

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DefaultUserAgent mimics a desktop browser; the site rejects bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client fetches draws from the JSON endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter // nil means unlimited

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client or PageClient.
type ClientOption func(*Client)

// NewClient creates a new draw API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	c := &Client{
		baseURL:   baseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		logger:       slog.Default(),
		maxRetries:   2,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit spaces requests, retries included, at least every apart.
func WithRateLimit(every time.Duration) ClientOption {
	return func(c *Client) {
		if every > 0 {
			c.limiter = rate.NewLimiter(rate.Every(every), 1)
		}
	}
}
