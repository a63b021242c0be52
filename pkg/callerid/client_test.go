package callerid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lookup-bot/internal/resilience"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantMatches int
		wantName    string
		wantScore   *float64
	}{
		{
			name:        "flat spam score",
			status:      http.StatusOK,
			body:        `{"data": [{"name": "John Doe", "spam_score": 2}]}`,
			wantMatches: 1,
			wantName:    "John Doe",
			wantScore:   floatPtr(2),
		},
		{
			name:        "nested spam info",
			status:      http.StatusOK,
			body:        `{"data": [{"name": "Spam Likely", "spamInfo": {"spamScore": 42}}, {"name": "Other"}]}`,
			wantMatches: 2,
			wantName:    "Spam Likely",
			wantScore:   floatPtr(42),
		},
		{
			name:        "no spam score",
			status:      http.StatusOK,
			body:        `{"data": [{"name": "Jane Roe"}]}`,
			wantMatches: 1,
			wantName:    "Jane Roe",
		},
		{
			name:   "empty data",
			status: http.StatusOK,
			body:   `{"data": []}`,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message": "not found"}`,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message": "bad installation id"}`,
			wantErr: "unexpected status 401",
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "malformed response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/search", r.URL.Path)
				assert.Equal(t, "Bearer install-1", r.Header.Get("Authorization"))
				assert.Equal(t, "+14155552671", r.URL.Query().Get("q"))
				assert.Equal(t, "US", r.URL.Query().Get("countryCode"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("install-1", WithBaseURL(srv.URL))
			res, err := client.Search(context.Background(), "+14155552671", "US")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, res.Matches, tt.wantMatches)
			if tt.wantMatches == 0 {
				return
			}
			require.NotNil(t, res.Matches[0].Name)
			assert.Equal(t, tt.wantName, *res.Matches[0].Name)
			assert.Equal(t, tt.wantScore, res.Matches[0].SpamScore)
		})
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	_, err := NewClient("").Search(context.Background(), "+1", "US")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestSearch_TransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("id", WithBaseURL(srv.URL)).Search(context.Background(), "+1", "US")
	assert.True(t, resilience.IsTransient(err))
}

func floatPtr(f float64) *float64 { return &f }
