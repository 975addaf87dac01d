// Package storage defines the key/value store that backs example servers,
// with in-memory and Redis implementations in its subpackages.
package storage

import (
	"context"
	"errors"
	"time"
)

// Storage defines a flat key/value store with optional expiry.
type Storage interface {
	// Get retrieves data for a specific key.
	// Returns nil Item if key doesn't exist or has expired.
	// Returns error only for legitimate storage system failures.
	Get(ctx context.Context, key string) (*Item, error)

	// Set stores data for a specific key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the live keys in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Close closes the storage backend and releases resources
	Close() error
}

// Item represents a stored piece of data with metadata
type Item struct {
	Data      []byte     // The stored data
	CreatedAt time.Time  // When the item was created
	ExpiresAt *time.Time // When the item expires (nil = no expiration)
}

// IsExpired checks if the item has expired
func (i *Item) IsExpired() bool {
	return i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt)
}

// Option configures storage operations
type Option func(*Options)

// Options contains configuration for storage operations
type Options struct {
	TTL *time.Duration // Optional: time-to-live for the data
}

// Apply evaluates opts.
func Apply(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL sets a time-to-live for the stored data
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = &ttl
	}
}

var (
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage: closed")
)
