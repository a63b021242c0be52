// Package ipapi is a client for the free ip-api.com geolocation endpoint.
package ipapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lookup-bot/internal/resilience"
)

const (
	defaultBaseURL = "http://ip-api.com"
	// fields is the subset requested from the upstream.
	fields = "status,message,query,country,countryCode,regionName,city,zip,isp,org"
	// DefaultRequestsPerMinute is the free tier allowance.
	DefaultRequestsPerMinute = 45
)

var (
	// ErrMalformedResponse is returned when the body is not an object
	// carrying a status.
	ErrMalformedResponse = eris.New("ipapi: malformed response")
	// ErrQuotaWait is returned when the client-side limiter cannot grant a
	// request before the context expires.
	ErrQuotaWait = eris.New("ipapi: rate limit wait exceeds deadline")
)

// Client geolocates IP addresses.
type Client interface {
	Lookup(ctx context.Context, ip string) (*Response, error)
}

// Response is the decoded payload. Fields absent from the body are nil.
type Response struct {
	Status      *string `json:"status"`
	Message     *string `json:"message"`
	Query       *string `json:"query"`
	Country     *string `json:"country"`
	CountryCode *string `json:"countryCode"`
	RegionName  *string `json:"regionName"`
	City        *string `json:"city"`
	Zip         *string `json:"zip"`
	ISP         *string `json:"isp"`
	Org         *string `json:"org"`

	Raw []byte `json:"-"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRequestsPerMinute sets the client-side limiter. Zero or less disables it.
func WithRequestsPerMinute(n int) Option {
	return func(c *httpClient) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an ip-api client limited to the free tier quota.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), DefaultRequestsPerMinute),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, ip string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(ErrQuotaWait, "rate limit wait: %v", err)
		}
	}

	u := c.baseURL + "/json/" + url.PathEscape(ip) + "?" + url.Values{"fields": {fields}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ipapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ipapi: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ipapi: read response")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("ipapi: unexpected status %d: %.200s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "unmarshal response: %v", err)
	}
	// null and {} decode cleanly but carry nothing to report.
	if result.Status == nil {
		return nil, eris.Wrap(ErrMalformedResponse, "missing status")
	}
	result.Raw = body

	return &result, nil
}
