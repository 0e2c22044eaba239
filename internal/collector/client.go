package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qepting91/ticker-pulse/internal/domain"
	"golang.org/x/time/rate"
)

// maxBody caps how much of a response body is read
const maxBody = 4 << 20

// HTTPClient talks to the ranking backend
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	now        func() time.Time
}

// ClientOptions tunes an HTTPClient
type ClientOptions struct {
	Timeout   time.Duration
	RateEvery time.Duration
	RateBurst int
	UserAgent string
	// Transport overrides the default transport (tests)
	Transport http.RoundTripper
}

// NewHTTPClient builds a client for the backend at baseURL
func NewHTTPClient(baseURL string, o ClientOptions) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	limit := rate.Inf
	if o.RateEvery > 0 {
		limit = rate.Every(o.RateEvery)
	}
	if o.UserAgent == "" {
		o.UserAgent = "ticker-pulse/1.0"
	}
	return &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: o.Timeout, Transport: o.Transport},
		limiter:    rate.NewLimiter(limit, o.RateBurst),
		userAgent:  o.UserAgent,
		now:        time.Now,
	}, nil
}

func (c *HTTPClient) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

// get performs one GET and returns the body of a 2xx response
func (c *HTTPClient) get(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %v: %w", err, domain.ErrFetchFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %v: %w", err, domain.ErrFetchFailed)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d: %w", resp.StatusCode, domain.ErrFetchFailed)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, domain.ErrFetchFailed)
	}
	return body, nil
}

// FetchRanking issues GET /api/top-10-filtered for params
func (c *HTTPClient) FetchRanking(ctx context.Context, params domain.QueryParams) (domain.RankingResult, error) {
	q := url.Values{}
	q.Set("timeframe", params.Timeframe)
	q.Set("subreddit", params.Subreddit)

	body, err := c.get(ctx, c.endpoint("/api/top-10-filtered", q))
	if err != nil {
		return domain.RankingResult{}, err
	}
	return FromPayload(body, c.now())
}

// FetchHome issues GET /api/home-data
func (c *HTTPClient) FetchHome(ctx context.Context) (domain.HomeSnapshot, error) {
	body, err := c.get(ctx, c.endpoint("/api/home-data", nil))
	if err != nil {
		return domain.HomeSnapshot{}, err
	}
	return FromHomePayload(body, c.now())
}

// FetchStock issues GET /api/stock/{symbol}
func (c *HTTPClient) FetchStock(ctx context.Context, symbol string) (domain.StockDetail, error) {
	body, err := c.get(ctx, c.endpoint("/api/stock/"+symbol, nil))
	if err != nil {
		return domain.StockDetail{}, err
	}
	return FromStockPayload(body)
}
