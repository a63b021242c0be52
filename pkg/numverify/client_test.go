package numverify

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

const validBody = `{
	"valid": true,
	"number": "14155552671",
	"country_name": "United States",
	"country_code": "US",
	"location": "California",
	"carrier": "Verizon",
	"line_type": "mobile"
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      string
		wantValid    *bool
		wantRejected bool
	}{
		{
			name:      "valid",
			status:    http.StatusOK,
			body:      validBody,
			wantValid: boolPtr(true),
		},
		{
			name:      "invalid",
			status:    http.StatusOK,
			body:      `{"valid": false, "number": "10000000000"}`,
			wantValid: boolPtr(false),
		},
		{
			name:         "bad key message",
			status:       http.StatusUnauthorized,
			body:         `{"message": "Invalid authentication credentials"}`,
			wantRejected: true,
		},
		{
			name:         "error object",
			status:       http.StatusOK,
			body:         `{"success": false, "error": {"code": 104, "type": "usage_limit_reached"}}`,
			wantRejected: true,
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `<html>oops</html>`,
			wantErr: "malformed response",
		},
		{
			name:    "json array",
			status:  http.StatusOK,
			body:    `[1,2,3]`,
			wantErr: "malformed response",
		},
		{
			name:    "gateway down",
			status:  http.StatusBadGateway,
			body:    `bad gateway`,
			wantErr: "unexpected status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/validate", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("apikey"))
				assert.Equal(t, "+14155552671", r.URL.Query().Get("number"))
				assert.Empty(t, r.URL.Query().Get("access_key"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.Validate(context.Background(), "+14155552671")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.Equal(t, tt.wantRejected, resp.Rejected)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, tt.body, string(resp.Raw))
		})
	}
}

func TestValidate_DecodesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).Validate(context.Background(), "+14155552671")
	require.NoError(t, err)

	assert.Equal(t, "United States", *resp.CountryName)
	assert.Equal(t, "US", *resp.CountryCode)
	assert.Equal(t, "California", *resp.Location)
	assert.Equal(t, "Verizon", *resp.Carrier)
	assert.Equal(t, "mobile", *resp.LineType)
	assert.False(t, resp.Rejected)
}

func TestValidate_EmptyFieldsAreAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"valid": true, "country_code": "US", "location": "", "carrier": null}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).Validate(context.Background(), "+1")
	require.NoError(t, err)

	assert.Nil(t, resp.CountryName)
	assert.Nil(t, resp.Location)
	assert.Nil(t, resp.Carrier)
	assert.Nil(t, resp.LineType)
	assert.Equal(t, "US", *resp.CountryCode)
}

func TestValidateLegacy_SendsKeyAsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
		assert.Equal(t, "+14155552671", r.URL.Query().Get("number"))
		assert.Empty(t, r.Header.Get("apikey"))
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithLegacyURL(srv.URL))
	resp, err := client.ValidateLegacy(context.Background(), "+14155552671")
	require.NoError(t, err)
	assert.True(t, *resp.Valid)
}

func TestMissingKey(t *testing.T) {
	client := NewClient("")

	_, err := client.Validate(context.Background(), "+14155552671")
	assert.True(t, errors.Is(err, ErrMissingKey))

	_, err = client.ValidateLegacy(context.Background(), "+14155552671")
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestMalformedIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Validate(context.Background(), "+1")
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.False(t, resilience.IsTransient(err))
}

func TestTransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Validate(context.Background(), "+1")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", WithBaseURL(srv.URL)).Validate(ctx, "+1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func boolPtr(b bool) *bool { return &b }
