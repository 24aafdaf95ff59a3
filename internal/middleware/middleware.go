package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r).
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware wraps a transport.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps base with the middlewares; the first middleware is outermost.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// DefaultHeaders sets headers that are absent on the outgoing request.
func DefaultHeaders(headers map[string]string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			for key, value := range headers {
				if r.Header.Get(key) == "" {
					r.Header.Set(key, value)
				}
			}
			return next.RoundTrip(r)
		})
	}
}

// Logging logs outgoing requests with timing information. Authorization
// headers are never logged.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			duration := time.Since(start)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Dur("duration", duration).
					Msg("http request failed")
				return nil, err
			}

			event := logger.Debug()
			if resp.StatusCode >= http.StatusBadRequest {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", resp.StatusCode).
				Dur("duration", duration).
				Str("idempotency_key", r.Header.Get("Idempotency-Key")).
				Msg("http request")

			return resp, nil
		})
	}
}
