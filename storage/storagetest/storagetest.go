// Package storagetest holds the behavior every storage.Storage
// implementation must share.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ggoodman/mcp-engine-go/storage"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s storage.Storage) {
	t.Run("SetAndGet", func(t *testing.T) { testSetAndGet(t, s) })
	t.Run("GetNonExistent", func(t *testing.T) { testGetNonExistent(t, s) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, s) })
	t.Run("TTL", func(t *testing.T) { testTTL(t, s) })
	t.Run("DeleteKey", func(t *testing.T) { testDeleteKey(t, s) })
	t.Run("Keys", func(t *testing.T) { testKeys(t, s) })
	t.Run("EmptyKey", func(t *testing.T) { testEmptyKey(t, s) })
}

func testSetAndGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	key := "test-key"
	data := []byte("test data")

	if err := s.Set(ctx, key, data); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if item == nil {
		t.Fatal("Expected item to exist, got nil")
	}
	if string(item.Data) != string(data) {
		t.Errorf("Expected data %s, got %s", data, item.Data)
	}
	if item.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if item.ExpiresAt != nil {
		t.Error("ExpiresAt should be nil for data without TTL")
	}

	// Mutating the returned slice must not touch the stored value.
	item.Data[0] = 'X'
	again, err := s.Get(ctx, key)
	if err != nil || again == nil {
		t.Fatalf("Failed to get data again: %v", err)
	}
	if string(again.Data) != string(data) {
		t.Errorf("Stored data changed through returned item: %s", again.Data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}
}

func testGetNonExistent(t *testing.T, s storage.Storage) {
	item, err := s.Get(context.Background(), "non-existent-key")
	if err != nil {
		t.Fatalf("Failed to get non-existent key: %v", err)
	}
	if item != nil {
		t.Error("Expected nil for non-existent key, got item")
	}
}

func testOverwrite(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	if err := s.Set(ctx, "over", []byte("one")); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := s.Set(ctx, "over", []byte("two")); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	item, err := s.Get(ctx, "over")
	if err != nil || item == nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(item.Data) != "two" {
		t.Errorf("Expected overwritten data, got %s", item.Data)
	}
	if err := s.Delete(ctx, "over"); err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}
}

func testTTL(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	key := "ttl-key"
	ttl := 100 * time.Millisecond

	if err := s.Set(ctx, key, []byte("ttl data"), storage.WithTTL(ttl)); err != nil {
		t.Fatalf("Failed to set data with TTL: %v", err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if item == nil {
		t.Fatal("Expected item to exist, got nil")
	}
	if item.ExpiresAt == nil {
		t.Fatal("ExpiresAt should not be nil for data with TTL")
	}

	time.Sleep(ttl + 50*time.Millisecond)

	item, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get expired data: %v", err)
	}
	if item != nil {
		t.Error("Expected nil for expired data, got item")
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	for _, k := range keys {
		if k == key {
			t.Error("Expired key is still listed")
		}
	}
}

func testDeleteKey(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	if err := s.Set(ctx, "delete-me", []byte("x")); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := s.Delete(ctx, "delete-me"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	item, err := s.Get(ctx, "delete-me")
	if err != nil {
		t.Fatalf("Failed to get deleted key: %v", err)
	}
	if item != nil {
		t.Error("Expected nil after delete, got item")
	}
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Deleting a missing key should succeed, got %v", err)
	}
}

func testKeys(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	for _, k := range []string{"b", "c", "a"} {
		if err := s.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Failed to set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Expected keys %v, got %v", want, keys)
	}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			t.Fatalf("Failed to clean up %s: %v", k, err)
		}
	}
}

func testEmptyKey(t *testing.T, s storage.Storage) {
	err := s.Set(context.Background(), "", []byte("x"))
	if !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}
