// Package store persists the token record between runs. The session layer
// treats it as a capability: a durable bbolt implementation for real use
// and an in-memory one for tests.
package store

import "context"

// Storage keys for the persisted token record.
const (
	AccessTokenKey  = "authToken"
	RefreshTokenKey = "refreshToken"
)

// TokenStorage is scoped key/value persistence for the token record.
// Implementations return the zero value for missing keys rather than an
// error; errors signal the storage medium itself failing. Callers log
// failures and treat a failed read as "no value".
type TokenStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
