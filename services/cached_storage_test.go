package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

func newCachedFixture(t *testing.T) (*CachedUserStorage, *FakeUserStorage, *FakeCache) {
	t.Helper()
	storage := NewFakeUserStorage()
	cache := NewFakeCache()
	storage.Put(&core.User{ID: "u1", Email: "alice@example.com", Name: "Alice"})
	return NewCachedUserStorage(storage, cache, nil), storage, cache
}

// Requirement: repeated lookups by ID are served from the cache.
func TestCachedUserStorage_GetUserByIDReadsThrough(t *testing.T) {
	ctx := context.Background()
	cached, storage, cache := newCachedFixture(t)

	for i := 0; i < 3; i++ {
		u, err := cached.GetUserByID(ctx, "u1")
		if err != nil {
			t.Fatalf("GetUserByID() error = %v", err)
		}
		if u.Name != "Alice" {
			t.Fatalf("Name = %q, want Alice", u.Name)
		}
	}

	if storage.Calls != 1 {
		t.Errorf("store lookups = %d, want 1", storage.Calls)
	}
	if cache.Len() != 1 {
		t.Errorf("cache size = %d, want 1", cache.Len())
	}
}

// Requirement: the cache returns fresh data after every write.
func TestCachedUserStorage_WritesInvalidate(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)

	tests := []struct {
		name  string
		write func(context.Context, *CachedUserStorage) error
		check func(*testing.T, *core.User)
	}{
		{
			name: "set verification token",
			write: func(ctx context.Context, c *CachedUserStorage) error {
				return c.SetVerificationToken(ctx, "u1", "654321", exp, now)
			},
			check: func(t *testing.T, u *core.User) {
				if !u.VerificationValid("654321", now) {
					t.Error("stale verification code")
				}
			},
		},
		{
			name: "verify user",
			write: func(ctx context.Context, c *CachedUserStorage) error {
				_, err := c.VerifyUser(ctx, "alice@example.com", "123456", now)
				return err
			},
			check: func(t *testing.T, u *core.User) {
				if !u.IsVerified {
					t.Error("stale verification flag")
				}
			},
		},
		{
			name: "set reset token",
			write: func(ctx context.Context, c *CachedUserStorage) error {
				return c.SetResetToken(ctx, "u1", "other-hash", exp, now)
			},
			check: func(t *testing.T, u *core.User) {
				if !u.ResetValid("other-hash", now) {
					t.Error("stale reset token")
				}
			},
		},
		{
			name: "consume reset token",
			write: func(ctx context.Context, c *CachedUserStorage) error {
				_, err := c.ConsumeResetToken(ctx, "reset-hash", "new-hash", now)
				return err
			},
			check: func(t *testing.T, u *core.User) {
				if u.PasswordHash != "new-hash" || u.ResetPasswordToken != nil {
					t.Error("stale password after reset")
				}
			},
		},
		{
			name: "update last login",
			write: func(ctx context.Context, c *CachedUserStorage) error {
				return c.UpdateLastLogin(ctx, "u1", now)
			},
			check: func(t *testing.T, u *core.User) {
				if !u.LastLogin.Equal(now) {
					t.Error("stale last login")
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			cached, storage, _ := newCachedFixture(t)
			u := &core.User{ID: "u1", Email: "alice@example.com", Name: "Alice", PasswordHash: "old-hash"}
			u.SetVerificationToken("123456", exp)
			u.SetResetToken("reset-hash", exp)
			storage.Put(u)

			if _, err := cached.GetUserByID(ctx, "u1"); err != nil {
				t.Fatalf("GetUserByID() error = %v", err)
			}
			if err := test.write(ctx, cached); err != nil {
				t.Fatalf("write error = %v", err)
			}

			got, err := cached.GetUserByID(ctx, "u1")
			if err != nil {
				t.Fatalf("GetUserByID() error = %v", err)
			}
			test.check(t, got)
		})
	}
}

func TestCachedUserStorage_FailedUpdateKeepsCache(t *testing.T) {
	ctx := context.Background()
	cached, storage, cache := newCachedFixture(t)
	_, _ = cached.GetUserByID(ctx, "u1")

	storage.SetUpdateError(errors.New("write failed"))
	if err := cached.UpdateLastLogin(ctx, "u1", time.Now()); err == nil {
		t.Fatal("UpdateLastLogin() should fail")
	}
	if cache.Len() != 1 {
		t.Error("cache entry dropped although the write failed")
	}
}

// Requirement: cache failures never fail a lookup or a write.
func TestCachedUserStorage_CacheFailuresAreIgnored(t *testing.T) {
	ctx := context.Background()
	cached, _, cache := newCachedFixture(t)
	cache.SetSetError(errors.New("redis down"))
	cache.SetDeleteError(errors.New("redis down"))

	if _, err := cached.GetUserByID(ctx, "u1"); err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if err := cached.UpdateLastLogin(ctx, "u1", time.Now()); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}
}

func TestCachedUserStorage_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	cached, _, cache := newCachedFixture(t)

	if _, err := cached.GetUserByID(ctx, "missing"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("GetUserByID() error = %v, want ErrUserNotFound", err)
	}
	if cache.Len() != 0 {
		t.Error("miss was cached")
	}
}
