// Package transport wraps the outbound HTTP path with the token
// lifecycle: bearer attachment per request, opportunistic rotation via
// response headers, and a single refresh-and-replay on 401.
package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/footballerweb/ligaclient/pkg/idx"
	"github.com/footballerweb/ligaclient/pkg/slogx"
)

// Headers the API uses to rotate tokens opportunistically on any call.
const (
	NewAccessTokenHeader  = "X-New-Access-Token"
	NewRefreshTokenHeader = "X-New-Refresh-Token"
	RefreshTokenHeader    = "X-Refresh-Token"
)

// exemptPrefixes are the auth endpoints that never receive an
// auto-attached bearer token and never trigger refresh-on-401.
var exemptPrefixes = []string{"/auth/", "/api/token/", "/health", "/swagger"}

// Credentials reads and adopts the current token pair. The access token
// is read at send time, never snapshotted, so a refresh between two
// calls is picked up by the next one automatically.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(ctx context.Context, access, refresh string)
}

// Renewer performs the on-demand refresh and re-arms the proactive timer
// when a rotated token arrives.
type Renewer interface {
	Refresh(ctx context.Context) error
	Schedule(token string)
}

// Interceptor is an http.RoundTripper that drives the token lifecycle on
// every call. Network errors from the wrapped transport propagate
// unchanged; only a 401 on a non-auth endpoint triggers the single
// refresh-and-replay.
type Interceptor struct {
	base    http.RoundTripper
	creds   Credentials
	renewer Renewer
	log     *slog.Logger

	// onAuthRequired mirrors the authRequired browser event: refresh
	// failed and the user has to log in again.
	onAuthRequired func()

	// onTokensRotated mirrors the tokensRefreshed browser event for the
	// response-header rotation path.
	onTokensRotated func(access, refresh string)
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(t *Interceptor) { t.log = log }
}

// OnAuthRequired registers a callback fired when a 401 could not be
// recovered by refreshing.
func OnAuthRequired(fn func()) Option {
	return func(t *Interceptor) { t.onAuthRequired = fn }
}

// OnTokensRotated registers a callback fired when the API rotates tokens
// through response headers.
func OnTokensRotated(fn func(access, refresh string)) Option {
	return func(t *Interceptor) { t.onTokensRotated = fn }
}

// New wraps base with the token lifecycle. A nil base falls back to
// http.DefaultTransport.
func New(base http.RoundTripper, creds Credentials, renewer Renewer, opts ...Option) *Interceptor {
	if base == nil {
		base = http.DefaultTransport
	}

	t := &Interceptor{
		base:    base,
		creds:   creds,
		renewer: renewer,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Client returns an *http.Client using the interceptor.
func (t *Interceptor) Client() *http.Client {
	return &http.Client{Transport: t}
}

// IsAuthEndpoint reports whether path belongs to the exemption list.
func IsAuthEndpoint(path string) bool {
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// RoundTrip implements http.RoundTripper.
func (t *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := slogx.WithRequestID(req.Context(), idx.New().String())
	log := slogx.FromContext(ctx)

	exempt := IsAuthEndpoint(req.URL.Path)

	// Keep the body replayable for the retry after a refresh.
	getBody := req.GetBody
	if req.Body != nil && getBody == nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()

		if err != nil {
			return nil, err
		}

		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	attempt, err := t.prepare(ctx, req, getBody, exempt)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(attempt)
	if err != nil {
		// Network faults are not retried here, they belong to the caller.
		return nil, err
	}

	t.adoptRotatedTokens(ctx, resp)

	if resp.StatusCode != http.StatusUnauthorized || exempt {
		return resp, nil
	}

	log.Debug("401 received, attempting token refresh", "path", req.URL.Path)

	if err := t.renewer.Refresh(ctx); err != nil {
		log.Warn("token refresh failed, authentication required", "error", err)

		if t.onAuthRequired != nil {
			t.onAuthRequired()
		}

		// Surface the original 401 unchanged.
		return resp, nil
	}

	// Refresh succeeded: replay the original request exactly once with
	// the updated bearer token. A second 401 is returned as-is.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry, err := t.prepare(ctx, req, getBody, exempt)
	if err != nil {
		return nil, err
	}

	retryResp, err := t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}

	t.adoptRotatedTokens(ctx, retryResp)

	return retryResp, nil
}

// prepare clones req with a fresh body and the current credential
// headers attached.
func (t *Interceptor) prepare(
	ctx context.Context,
	req *http.Request,
	getBody func() (io.ReadCloser, error),
	exempt bool,
) (*http.Request, error) {
	clone := req.Clone(ctx)
	clone.GetBody = getBody

	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, err
		}

		clone.Body = body
	}

	if exempt {
		return clone, nil
	}

	if access := t.creds.AccessToken(); access != "" {
		clone.Header.Set("Authorization", "Bearer "+access)

		if refresh := t.creds.RefreshToken(); refresh != "" {
			clone.Header.Set(RefreshTokenHeader, refresh)
		}
	}

	return clone, nil
}

// adoptRotatedTokens persists tokens the API pushed through response
// headers and re-arms the proactive refresh for a new access token.
func (t *Interceptor) adoptRotatedTokens(ctx context.Context, resp *http.Response) {
	access := resp.Header.Get(NewAccessTokenHeader)
	refresh := resp.Header.Get(NewRefreshTokenHeader)

	if access == "" && refresh == "" {
		return
	}

	t.creds.SetTokens(ctx, access, refresh)

	if access != "" {
		t.renewer.Schedule(access)
	}

	if t.onTokensRotated != nil {
		t.onTokensRotated(access, refresh)
	}

	slogx.FromContext(ctx).Info("tokens rotated by server",
		"access", access != "", "refresh", refresh != "")
}
