package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

// KV is the durable key/value backend, the server-side stand-in for the
// browser's local storage. Writes are durable once the call returns.
type KV interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, oldest first where the backend can tell.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
