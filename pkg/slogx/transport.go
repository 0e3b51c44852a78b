package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

// HTTPTransport wraps an http.RoundTripper and logs every outgoing request
// with the contextual logger carried in the request context.
func HTTPTransport(base *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{base: base, next: next}
}

type loggingTransport struct {
	base *slog.Logger
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := FromContext(req.Context())
	if logger == slog.Default() && t.base != nil {
		logger = t.base
	}
	logger = logger.With(
		"method", req.Method,
		"path", req.URL.Path,
		"host", req.URL.Host,
	)

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed",
			"duration_ms", duration,
			"error", err,
		)
		return nil, err
	}

	logger.Info("http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
