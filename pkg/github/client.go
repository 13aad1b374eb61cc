package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docustream/pkg/queue"
	"docustream/pkg/ratelimit"
	"docustream/pkg/version"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

const (
	DefaultAPIURL  = "https://api.github.com/"
	DefaultRawURL  = "https://raw.githubusercontent.com"
	DefaultTimeout = 30 * time.Second
)

// Client talks to the GitHub REST API and the raw content host. The zero
// value is not usable; construct one with New.
type Client struct {
	api     *gh.Client
	http    *http.Client
	apiURL  string
	rawURL  string
	token   string
	timeout time.Duration
	limiter *ratelimit.Limiter
	logger  *zap.Logger

	trees    Cache[treeKey, *Tree]
	branches Cache[repoKey, string]
	gists    Cache[string, []queue.File]
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the transport used for both hosts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURLs points the client at alternative API and raw hosts.
// Empty values keep the defaults.
func WithBaseURLs(apiURL, rawURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = apiURL
		}
		if rawURL != "" {
			c.rawURL = rawURL
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLimiter consults l before every uncached call.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithoutCache disables all result caching.
func WithoutCache() Option {
	return func(c *Client) {
		c.trees = NoCache[treeKey, *Tree]{}
		c.branches = NoCache[repoKey, string]{}
		c.gists = NoCache[string, []queue.File]{}
	}
}

// New builds a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		http:     &http.Client{},
		apiURL:   DefaultAPIURL,
		rawURL:   DefaultRawURL,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
		trees:    NewCache[treeKey, *Tree](cacheSize, TreeTTL),
		branches: NewCache[repoKey, string](cacheSize, BranchTTL),
		gists:    NewCache[string, []queue.File](cacheSize, GistTTL),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.apiURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", c.apiURL, err)
	}
	c.rawURL = strings.TrimRight(c.rawURL, "/")

	c.api = gh.NewClient(c.http)
	c.api.BaseURL = u
	c.api.UserAgent = version.Get().UserAgent()
	if c.token != "" {
		c.api = c.api.WithAuthToken(c.token)
	}
	return c, nil
}

// Authenticated reports whether a token is configured.
func (c *Client) Authenticated() bool { return c.token != "" }

// ClearCache drops every cached tree, branch and gist.
func (c *Client) ClearCache() {
	c.trees.Purge()
	c.branches.Purge()
	c.gists.Purge()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// allow asks the limiter for permission to make one call.
func (c *Client) allow(what string) error {
	ok, wait := c.limiter.CanProceed()
	if ok {
		return nil
	}
	c.logger.Warn("Local rate limit reached",
		zap.String("request", what),
		zap.Duration("retryIn", wait))
	return fmt.Errorf("%w: %s: retry in %s", ErrRateLimited, what, wait.Round(time.Second))
}
