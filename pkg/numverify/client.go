// Package numverify is a client for the apilayer number verification API and
// its legacy apilayer.net endpoint.
package numverify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/lookup-bot/internal/resilience"
)

const (
	defaultBaseURL   = "https://api.apilayer.com/number_verification"
	defaultLegacyURL = "http://apilayer.net/api"
)

var (
	// ErrMissingKey is returned before any request when no API key is configured.
	ErrMissingKey = eris.New("numverify: api key is missing")
	// ErrMalformedResponse is returned when the body is not a JSON object.
	ErrMalformedResponse = eris.New("numverify: malformed response")
)

// Client validates phone numbers.
type Client interface {
	// Validate calls the current endpoint, sending the key as a header.
	Validate(ctx context.Context, number string) (*Response, error)
	// ValidateLegacy calls the legacy endpoint, sending the key as a query
	// parameter.
	ValidateLegacy(ctx context.Context, number string) (*Response, error)
}

// Response is a decoded validation payload. Fields absent from the body are nil.
type Response struct {
	Valid       *bool
	CountryName *string
	CountryCode *string
	Location    *string
	Carrier     *string
	LineType    *string

	// Rejected is set when the payload carries an "error" or "message"
	// field instead of a verdict, e.g. a key issued for the other endpoint.
	Rejected bool
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Raw is the undecoded body.
	Raw []byte
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the current endpoint base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithLegacyURL overrides the legacy endpoint base URL.
func WithLegacyURL(u string) Option {
	return func(c *httpClient) {
		c.legacyURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	legacyURL string
	http      *http.Client
}

// NewClient creates a number verification client. An empty apiKey is
// accepted; every call then fails with ErrMissingKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		legacyURL: defaultLegacyURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Validate(ctx context.Context, number string) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}
	q := url.Values{"number": {number}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/validate?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "numverify: create request")
	}
	req.Header.Set("apikey", c.apiKey)
	return c.do(req)
}

func (c *httpClient) ValidateLegacy(ctx context.Context, number string) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}
	q := url.Values{"access_key": {c.apiKey}, "number": {number}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.legacyURL+"/validate?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "numverify: create legacy request")
	}
	return c.do(req)
}

func (c *httpClient) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "numverify: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "numverify: read response")
	}

	// Error statuses still carry JSON bodies worth surfacing (quota, bad
	// key), so only non-JSON bodies are treated as failures.
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("numverify: unexpected status %d", resp.StatusCode), resp.StatusCode)
		}
		return nil, eris.Wrapf(ErrMalformedResponse, "status %d: %.200s", resp.StatusCode, string(body))
	}

	return parse(body, resp.StatusCode), nil
}

func parse(body []byte, status int) *Response {
	doc := gjson.ParseBytes(body)
	r := &Response{
		StatusCode:  status,
		Raw:         body,
		CountryName: optString(doc.Get("country_name")),
		CountryCode: optString(doc.Get("country_code")),
		Location:    optString(doc.Get("location")),
		Carrier:     optString(doc.Get("carrier")),
		LineType:    optString(doc.Get("line_type")),
		Rejected:    doc.Get("error").Exists() || doc.Get("message").Exists(),
	}
	if v := doc.Get("valid"); v.IsBool() {
		b := v.Bool()
		r.Valid = &b
	}
	return r
}

// optString returns nil for missing, null or empty string values.
func optString(v gjson.Result) *string {
	if v.Type != gjson.String || v.Str == "" {
		return nil
	}
	s := v.Str
	return &s
}
