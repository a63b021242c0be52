// Package callerid is a client for a people-search caller identification API.
// Requests are authenticated with a pre-provisioned installation id.
package callerid

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

const defaultBaseURL = "https://search5-noneu.truecaller.com"

var (
	// ErrNotConfigured is returned when no installation id is configured.
	ErrNotConfigured = eris.New("callerid: installation id is not configured")
	// ErrMalformedResponse is returned when the body is not a JSON object.
	ErrMalformedResponse = eris.New("callerid: malformed response")
)

// Client searches for the name behind a phone number.
type Client interface {
	Search(ctx context.Context, number, countryCode string) (*SearchResult, error)
}

// Match is a single search hit. Fields absent from the body are nil.
type Match struct {
	Name      *string
	SpamScore *float64
}

// SearchResult holds every hit in upstream order.
type SearchResult struct {
	Matches []Match
	Raw     []byte
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

type httpClient struct {
	installationID string
	baseURL        string
	http           *http.Client
}

// NewClient creates a caller identification client.
func NewClient(installationID string, opts ...Option) Client {
	c := &httpClient{
		installationID: installationID,
		baseURL:        defaultBaseURL,
		http:           &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, number, countryCode string) (*SearchResult, error) {
	if c.installationID == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{
		"q":           {number},
		"countryCode": {countryCode},
		"type":        {"4"},
		"encoding":    {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "callerid: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.installationID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "callerid: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "callerid: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return &SearchResult{Raw: body}, nil
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("callerid: unexpected status %d: %.200s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, eris.Wrapf(ErrMalformedResponse, "%.200s", string(body))
	}

	return parse(body), nil
}

// parse reads data[].name and the spam score, which is reported either flat
// (spam_score) or nested under spamInfo.spamScore depending on API version.
func parse(body []byte) *SearchResult {
	result := &SearchResult{Raw: body}
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		var m Match
		if n := item.Get("name"); n.Type == gjson.String && n.Str != "" {
			name := n.Str
			m.Name = &name
		}
		for _, path := range []string{"spam_score", "spamScore", "spamInfo.spamScore"} {
			if s := item.Get(path); s.Type == gjson.Number {
				score := s.Float()
				m.SpamScore = &score
				break
			}
		}
		result.Matches = append(result.Matches, m)
		return true
	})
	return result
}
