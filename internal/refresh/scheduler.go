// Package refresh renews the access token: on demand when the transport
// sees a 401, and proactively on a one-shot timer armed ahead of the
// token's expiry claim.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/footballerweb/ligaclient/internal/session"
	"github.com/footballerweb/ligaclient/pkg/tokenx"
)

// DefaultBuffer is how long before expiry the proactive refresh fires.
const DefaultBuffer = 5 * time.Minute

// ErrNoRefreshToken is returned when a refresh is requested without a
// stored refresh token.
var ErrNoRefreshToken = errors.New("refresh: no refresh token available")

// ErrThrottled is returned when refresh attempts exceed the rate limit.
var ErrThrottled = errors.New("refresh: too many refresh attempts")

// Exchanger swaps a refresh token for a new token pair at the remote API.
type Exchanger interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// ExchangeFunc adapts a function to the Exchanger interface.
type ExchangeFunc func(ctx context.Context, refreshToken string) (string, string, error)

func (f ExchangeFunc) ExchangeRefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	return f(ctx, refreshToken)
}

// Scheduler owns the single pending proactive-refresh timer and the
// on-demand refresh path. At most one timer is pending at a time; arming
// a new one always cancels the prior one first. Concurrent Refresh calls
// collapse into a single exchange, so a stale in-flight refresh cannot
// clobber a newer token pair.
type Scheduler struct {
	sess     *session.Manager
	exchange Exchanger
	buffer   time.Duration
	log      *slog.Logger
	now      func() time.Time
	limiter  *rate.Limiter

	group singleflight.Group

	// onRefreshed mirrors the tokensRefreshed browser event.
	onRefreshed func(access, refresh string)

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBuffer overrides the safety buffer subtracted from the expiry claim.
func WithBuffer(d time.Duration) Option {
	return func(s *Scheduler) { s.buffer = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithClock overrides the time source, for deadline tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLimiter overrides the refresh attempt rate limit.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scheduler) { s.limiter = l }
}

// OnTokensRefreshed registers a callback fired after every successful
// refresh with the freshly adopted pair.
func OnTokensRefreshed(fn func(access, refresh string)) Option {
	return func(s *Scheduler) { s.onRefreshed = fn }
}

// New creates a Scheduler renewing tokens on sess through exchange.
func New(sess *session.Manager, exchange Exchanger, opts ...Option) *Scheduler {
	s := &Scheduler{
		sess:     sess,
		exchange: exchange,
		buffer:   DefaultBuffer,
		log:      slog.Default(),
		now:      time.Now,
		// A misbehaving endpoint should not turn the retry path into a
		// refresh storm.
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 5),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Refresh performs one on-demand token exchange. On success the new pair
// is persisted, adopted, and the proactive timer re-armed. On failure the
// stored tokens are left untouched and the error is returned to the
// caller. Overlapping calls share a single exchange.
func (s *Scheduler) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		refreshToken := s.sess.RefreshToken()
		if refreshToken == "" {
			return nil, ErrNoRefreshToken
		}

		if !s.limiter.Allow() {
			return nil, ErrThrottled
		}

		access, refresh, err := s.exchange.ExchangeRefreshToken(ctx, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("exchanging refresh token: %w", err)
		}

		s.sess.SetTokens(ctx, access, refresh)
		s.Schedule(access)

		if s.onRefreshed != nil {
			s.onRefreshed(access, refresh)
		}

		s.log.Info("tokens refreshed")

		return nil, nil
	})

	return err
}

// Schedule arms the proactive timer for token, cancelling any pending
// one. The deadline is the expiry claim minus the buffer; a deadline
// already in the past triggers an immediate refresh instead of arming.
// A token without a usable expiry cancels the pending timer and arms none.
func (s *Scheduler) Schedule(token string) {
	s.mu.Lock()
	s.cancelLocked()

	cs, err := tokenx.Decode(token)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("cannot schedule refresh for undecodable token", "error", err)

		return
	}

	exp, ok := cs.ExpiresAt()
	if !ok {
		s.mu.Unlock()
		s.log.Warn("token has no expiry claim, refresh not scheduled")

		return
	}

	deadline := exp.Add(-s.buffer)
	now := s.now()

	if !deadline.After(now) {
		s.mu.Unlock()
		s.log.Info("token at or near expiry, refreshing now")

		go func() {
			if err := s.Refresh(context.Background()); err != nil {
				s.log.Warn("immediate refresh failed", "error", err)
			}
		}()

		return
	}

	s.deadline = deadline
	s.timer = time.AfterFunc(deadline.Sub(now), s.fire)
	s.mu.Unlock()

	s.log.Debug("proactive refresh scheduled", "deadline", deadline)
}

// Stop cancels the pending proactive timer, if any. Called on logout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
}

// PendingDeadline reports the deadline of the pending timer, if one is
// armed.
func (s *Scheduler) PendingDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deadline, s.timer != nil
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	s.deadline = time.Time{}
	s.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		s.log.Warn("proactive refresh failed", "error", err)
	}
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.deadline = time.Time{}
}
