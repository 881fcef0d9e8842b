package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

func newTestUser(id string) *core.User {
	return &core.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         "Test " + id,
		PasswordHash: "hash-" + id,
	}
}

func TestInMemoryCacheGetSetShouldStoreAndRetrieve(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{TTL: 5 * time.Minute, MaxSize: 500})

	if err := cache.Set(ctx, "user456", newTestUser("user456")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := cache.Get(ctx, "user456")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.Email != "user456@example.com" {
		t.Errorf("Expected email user456@example.com, got %s", retrieved.Email)
	}
	if retrieved.PasswordHash != "hash-user456" {
		t.Errorf("Expected password hash to survive caching, got %q", retrieved.PasswordHash)
	}
}

func TestInMemoryCacheGetNonExistentShouldReturnErrCacheNotFound(t *testing.T) {
	cache := NewInMemoryCache(core.CacheConfig{})

	_, err := cache.Get(context.Background(), "nonexistent")
	if !errors.Is(err, core.ErrCacheNotFound) {
		t.Errorf("Expected ErrCacheNotFound, got %v", err)
	}
}

// Requirement: callers never share memory with the cached record.
func TestInMemoryCacheShouldIsolateCallerMutations(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{})

	u := newTestUser("u1")
	_ = cache.Set(ctx, "u1", u)
	u.Name = "mutated after set"

	got, _ := cache.Get(ctx, "u1")
	got.Name = "mutated after get"

	again, _ := cache.Get(ctx, "u1")
	if again.Name != "Test u1" {
		t.Errorf("cached record was mutated: %q", again.Name)
	}
}

func TestInMemoryCacheExpiryShouldExpireEntriesAfterTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{TTL: time.Minute})
	now := time.Now()
	cache.now = func() time.Time { return now }

	_ = cache.Set(ctx, "u1", newTestUser("u1"))
	if _, err := cache.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.Get(ctx, "u1"); !errors.Is(err, core.ErrCacheNotFound) {
		t.Fatalf("Expected ErrCacheNotFound after TTL, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, len = %d", cache.Len())
	}
}

func TestInMemoryCacheMaxSizeShouldEvict(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{MaxSize: 2})

	_ = cache.Set(ctx, "a", newTestUser("a"))
	_ = cache.Set(ctx, "b", newTestUser("b"))
	_ = cache.Set(ctx, "b", newTestUser("b")) // replacing does not evict
	if got := cache.Stats().Evictions; got != 0 {
		t.Fatalf("Expected no evictions on replace, got %d", got)
	}

	_ = cache.Set(ctx, "c", newTestUser("c"))
	stats := cache.Stats()
	if stats.Size != 2 {
		t.Errorf("Expected size 2, got %d", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestInMemoryCacheStatsShouldCountOperations(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{})

	_ = cache.Set(ctx, "a", newTestUser("a"))
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "missing")
	_ = cache.Delete(ctx, "a")
	_ = cache.Delete(ctx, "a")

	stats := cache.Stats()
	want := core.CacheStats{Hits: 1, Misses: 1, Sets: 1, Deletes: 1, Size: 0, TTL: 5 * time.Minute}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

func TestInMemoryCacheClearShouldEmpty(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCache(core.CacheConfig{})
	_ = cache.Set(ctx, "a", newTestUser("a"))
	_ = cache.Set(ctx, "b", newTestUser("b"))

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, len = %d", cache.Len())
	}
}

func TestCachedUserConversionKeepsCredentials(t *testing.T) {
	code := "123456"
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	u := newTestUser("u1")
	u.SetVerificationToken(code, exp)

	got := fromUser(u).toUser()
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, u.PasswordHash)
	}
	if !got.VerificationValid(code, exp.Add(-time.Minute)) {
		t.Error("verification code lost in conversion")
	}
}
