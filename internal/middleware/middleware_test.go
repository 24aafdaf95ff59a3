package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				calls = append(calls, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls = append(calls, "base")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})

	rt := Chain(base, tag("outer"), tag("inner"))
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)

	resp, err := rt.RoundTrip(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"outer", "inner", "base"}, calls)
}

func TestDefaultHeaders(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		expected string
	}{
		{name: "Header absent", preset: "", expected: "application/json"},
		{name: "Header preset", preset: "text/plain", expected: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Content-Type")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := &http.Client{Transport: Chain(nil, DefaultHeaders(map[string]string{
				"Content-Type": "application/json",
			}))}

			req, err := http.NewRequest(http.MethodPost, server.URL, nil)
			require.NoError(t, err)
			if tt.preset != "" {
				req.Header.Set("Content-Type", tt.preset)
			}

			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.expected, got)
			if tt.preset == "" {
				assert.Empty(t, req.Header.Get("Content-Type"), "caller request must not be mutated")
			}
		})
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &http.Client{Transport: Chain(nil, Logging(logger))}
	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/orders", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Idempotency-Key", "key-1-1")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	assert.Contains(t, out, `"status":429`)
	assert.Contains(t, out, `"path":"/v1/orders"`)
	assert.Contains(t, out, `"idempotency_key":"key-1-1"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.NotContains(t, out, "secret-token")
}

func TestLogging_TransportError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	failing := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rt := Chain(failing, Logging(logger))
	req := httptest.NewRequest(http.MethodGet, "http://example.test/health", nil)

	resp, err := rt.RoundTrip(req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, buf.String(), "http request failed")
	assert.Contains(t, buf.String(), "connection refused")
}
