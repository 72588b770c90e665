package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lborres/abaccess/core"
)

func newTestSession(id string) *core.Session {
	now := time.Now()
	return &core.Session{
		ID:        id,
		AccountID: "acct-" + id,
		TokenHash: "hash-" + id,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInMemoryCacheGetSetShouldStoreAndRetrieve(t *testing.T) {
	// Arrange
	c := NewInMemoryCache(core.CacheConfig{TTL: 5 * time.Minute, MaxSize: 500})
	session := newTestSession("s1")

	// Act
	if err := c.Set(session.TokenHash, session); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(session.TokenHash)

	// Assert
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != session.ID || got.AccountID != session.AccountID {
		t.Errorf("got %+v, want %+v", got, session)
	}
}

func TestInMemoryCacheGetNonExistentShouldReturnErrCacheNotFound(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})

	if _, err := c.Get("nonexistent"); err != core.ErrCacheNotFound {
		t.Errorf("Expected ErrCacheNotFound, got %v", err)
	}
}

func TestInMemoryCacheDefaults(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})
	if c.ttl != DefaultTTL || c.maxSize != DefaultMaxSize {
		t.Errorf("defaults = (%v, %d), want (%v, %d)", c.ttl, c.maxSize, DefaultTTL, DefaultMaxSize)
	}
}

func TestInMemoryCacheExpiryShouldExpireEntriesAfterTTL(t *testing.T) {
	// Arrange
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 500})
	c.now = func() time.Time { return now }
	c.Set("hash", newTestSession("s1"))

	if _, err := c.Get("hash"); err != nil {
		t.Fatal("Session should exist immediately after Set")
	}

	// Act
	now = now.Add(2 * time.Minute)
	_, err := c.Get("hash")

	// Assert
	if err != core.ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound after TTL, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Cache should be empty after expired entry removed, got size %d", c.Len())
	}
}

func TestInMemoryCacheDeleteShouldRemoveEntry(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})
	c.Set("hash", newTestSession("s1"))

	if err := c.Delete("hash"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get("hash"); err != core.ErrCacheNotFound {
		t.Error("Session should be deleted")
	}
	if err := c.Delete("nonexistent"); err != nil {
		t.Errorf("Delete of non-existent key should not error, got %v", err)
	}
}

func TestInMemoryCacheClearShouldRemoveAllEntries(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("hash%d", i), newTestSession(fmt.Sprint(i)))
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Cache should be empty after Clear, got size %d", c.Len())
	}
}

func TestInMemoryCacheMaxSizeShouldEvictWhenOverCapacity(t *testing.T) {
	// Arrange
	c := NewInMemoryCache(core.CacheConfig{TTL: 5 * time.Minute, MaxSize: 2})
	c.Set("hash1", newTestSession("1"))
	c.Set("hash2", newTestSession("2"))

	// Act
	c.Set("hash3", newTestSession("3"))

	// Assert
	if c.Len() != 2 {
		t.Errorf("Expected size 2 after eviction, got %d", c.Len())
	}
	if _, err := c.Get("hash3"); err != nil {
		t.Error("newest entry should survive eviction")
	}
	if stats := c.Stats(); stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestInMemoryCacheOverwriteShouldNotEvict(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{MaxSize: 1})
	c.Set("hash1", newTestSession("1"))
	c.Set("hash1", newTestSession("1b"))

	got, err := c.Get("hash1")
	if err != nil || got.ID != "1b" {
		t.Errorf("Get() = %v, %v; want overwritten session", got, err)
	}
	if c.Stats().Evictions != 0 {
		t.Error("overwriting a key should not evict")
	}
}

func TestInMemoryCacheStatsShouldCountOperations(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})
	c.Set("hash", newTestSession("1"))
	c.Get("hash")
	c.Get("missing")
	c.Delete("hash")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 || stats.Deletes != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestInMemoryCacheConcurrentAccessShouldNotRace(t *testing.T) {
	c := NewInMemoryCache(core.CacheConfig{})
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("hash%d", i)
			c.Set(key, newTestSession(key))
			c.Delete(key)
		}(i)
		go func() {
			defer wg.Done()
			c.Get("hash0")
		}()
	}
	wg.Wait()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got size %d", c.Len())
	}
}
