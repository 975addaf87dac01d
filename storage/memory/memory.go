// Package memory provides an in-memory implementation of the storage interface
// using github.com/hashicorp/golang-lru/v2 as a bounded cache with TTL support.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ggoodman/mcp-engine-go/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxItems is used when New is given a non-positive size.
const DefaultMaxItems = 1000

// Storage implements the storage.Storage interface using in-memory storage.
// Once full, the least recently used key is evicted.
type Storage struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *storage.Item]
	closed bool
}

// New creates a new in-memory storage holding at most maxItems keys.
func New(maxItems int) (*Storage, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	cache, err := lru.New[string, *storage.Item](maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Storage{cache: cache}, nil
}

// Get retrieves data for a specific key
func (s *Storage) Get(ctx context.Context, key string) (*storage.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	item, exists := s.cache.Get(key)
	if !exists {
		return nil, nil
	}
	if item.IsExpired() {
		s.cache.Remove(key)
		return nil, nil
	}
	return cloneItem(item), nil
}

// Set stores data for a specific key
func (s *Storage) Set(ctx context.Context, key string, data []byte, opts ...storage.Option) error {
	if key == "" {
		return storage.ErrInvalidKey
	}
	options := storage.Apply(opts...)

	now := time.Now()
	item := &storage.Item{
		Data:      slices.Clone(data),
		CreatedAt: now,
	}
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.cache.Add(key, item)
	return nil
}

// Delete removes key
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.cache.Remove(key)
	return nil
}

// Keys lists live keys in lexical order, dropping expired ones on the way.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	keys := make([]string, 0, s.cache.Len())
	for _, key := range s.cache.Keys() {
		item, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if item.IsExpired() {
			s.cache.Remove(key)
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close drops every item. Later calls fail with storage.ErrClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	s.cache.Purge()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func cloneItem(item *storage.Item) *storage.Item {
	c := *item
	c.Data = slices.Clone(item.Data)
	return &c
}

// Compile-time interface check
var _ storage.Storage = (*Storage)(nil)
