package forge

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

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/forgemap/pkg/buildinfo"
	"github.com/matzehuels/forgemap/pkg/cache"
	"github.com/matzehuels/forgemap/pkg/observability"
)

// Default endpoints of the public forge this tool was built for.
const (
	DefaultRESTURL    = "https://forge.apps.education.fr/api/v4"
	DefaultGraphQLURL = "https://forge.apps.education.fr/api/graphql"
	DefaultPerPage    = 20
)

const httpTimeout = 10 * time.Second

// Transport is the capability every resource service is built on.
type Transport interface {
	// GetJSON fetches url and decodes the body into v. Responses are cached
	// and transient failures retried.
	GetJSON(ctx context.Context, url string, v any) error

	// GetPage fetches one page of a paginated collection. It is neither
	// cached nor retried.
	GetPage(ctx context.Context, url string, page int) (Page, error)

	// GraphQL posts q and decodes the "data" member of the response into v.
	GraphQL(ctx context.Context, q Query, v any) error
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	RESTURL    string
	GraphQLURL string
	Token      string // sent as PRIVATE-TOKEN when set
	PerPage    int

	Cache    cache.Cache
	CacheTTL time.Duration
	Keyer    cache.Keyer

	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to one forge over REST and GraphQL.
//
// All methods are safe for concurrent use.
type Client struct {
	http       *http.Client
	restURL    string
	graphqlURL string
	perPage    int
	headers    map[string]string
	cache      cache.Cache
	ttl        time.Duration
	keyer      cache.Keyer
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		http:       opts.HTTPClient,
		restURL:    strings.TrimRight(opts.RESTURL, "/"),
		graphqlURL: opts.GraphQLURL,
		perPage:    opts.PerPage,
		headers:    map[string]string{"Accept": "application/json", "User-Agent": buildinfo.UserAgent()},
		cache:      opts.Cache,
		ttl:        opts.CacheTTL,
		keyer:      opts.Keyer,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.restURL == "" {
		c.restURL = DefaultRESTURL
	}
	if c.graphqlURL == "" {
		c.graphqlURL = DefaultGraphQLURL
	}
	if c.perPage <= 0 {
		c.perPage = DefaultPerPage
	}
	if opts.Token != "" {
		c.headers["PRIVATE-TOKEN"] = opts.Token
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewScopedKeyer(nil, hostOf(c.restURL)+":")
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// RESTURL returns the REST base URL without a trailing slash.
func (c *Client) RESTURL() string { return c.restURL }

// PerPage returns the page size used for paginated collections.
func (c *Client) PerPage() int { return c.perPage }

// GetJSON implements Transport.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	ns := namespace(c.restURL, rawURL)
	key := c.keyer.HTTPKey(ns, rawURL)

	if data, ok, _ := c.cache.Get(ctx, key); ok {
		if json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, ns)
			return nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, ns)

	var body []byte
	err := Retry(ctx, func() error {
		b, _, err := c.do(ctx, http.MethodGet, rawURL, nil)
		body = b
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, ns, len(body))
	} else {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
	return nil
}

// GetPage implements Transport.
func (c *Client) GetPage(ctx context.Context, rawURL string, page int) (Page, error) {
	body, header, err := c.do(ctx, http.MethodGet, PageURL(rawURL, page), nil)
	if err != nil {
		return Page{}, err
	}

	p := Page{Next: parseNextPage(header.Get("X-Next-Page"))}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return p, nil
	}
	if err := json.Unmarshal(trimmed, &p.Items); err != nil {
		return Page{}, fmt.Errorf("decode page %d of %s: %w", page, rawURL, err)
	}
	return p, nil
}

// GraphQL implements Transport.
func (c *Client) GraphQL(ctx context.Context, q Query, v any) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return err
	}

	var body []byte
	err = Retry(ctx, func() error {
		b, _, err := c.do(ctx, http.MethodPost, c.graphqlURL, payload)
		body = b
		return err
	})
	if err != nil {
		return err
	}

	data, err := graphQLData(body)
	if err != nil {
		c.logger.Warn("graphql query failed, using empty data", "error", err)
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	c.logger.Debug("forge request", "method", method, "url", rawURL, "status", resp.StatusCode)
	if err != nil {
		return nil, nil, Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	if err := checkStatus(resp); err != nil {
		return nil, nil, err
	}
	return body, resp.Header, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return &RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrRateLimited, code),
			After: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// namespace labels cache entries and metrics with the first path segment
// below the REST base ("projects", "groups", ...).
func namespace(base, rawURL string) string {
	rest := strings.TrimPrefix(rawURL, base)
	rest = strings.TrimPrefix(rest, "/")
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "other"
	}
	return rest
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

var _ Transport = (*Client)(nil)
