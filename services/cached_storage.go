package services

import (
	"context"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/logging"
)

// CachedUserStorage is a read-through cache over GetUserByID, the lookup
// behind every check-auth request. Writes go to the store first and then
// drop the cached entry.
type CachedUserStorage struct {
	core.UserStorage
	cache core.Cache
	log   logging.Logger
}

var _ core.UserStorage = (*CachedUserStorage)(nil)

func NewCachedUserStorage(storage core.UserStorage, cache core.Cache, log logging.Logger) *CachedUserStorage {
	if log == nil {
		log = logging.Nop()
	}
	return &CachedUserStorage{UserStorage: storage, cache: cache, log: log}
}

func (c *CachedUserStorage) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if user, err := c.cache.Get(ctx, id); err == nil {
		return user, nil
	}

	user, err := c.UserStorage.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// We don't fail the request if caching fails
	if err := c.cache.Set(ctx, id, user); err != nil {
		c.log.Warn(ctx, "failed to cache user", "userID", id, "error", err)
	}
	return user, nil
}

func (c *CachedUserStorage) VerifyUser(ctx context.Context, email, code string, now time.Time) (*core.User, error) {
	user, err := c.UserStorage.VerifyUser(ctx, email, code, now)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, user.ID)
	return user, nil
}

func (c *CachedUserStorage) SetVerificationToken(ctx context.Context, id, code string, expiresAt, now time.Time) error {
	if err := c.UserStorage.SetVerificationToken(ctx, id, code, expiresAt, now); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedUserStorage) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	if err := c.UserStorage.SetResetToken(ctx, id, tokenHash, expiresAt, now); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedUserStorage) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*core.User, error) {
	user, err := c.UserStorage.ConsumeResetToken(ctx, tokenHash, passwordHash, now)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, user.ID)
	return user, nil
}

func (c *CachedUserStorage) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := c.UserStorage.UpdateLastLogin(ctx, id, at); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedUserStorage) invalidate(ctx context.Context, id string) {
	if err := c.cache.Delete(ctx, id); err != nil {
		c.log.Warn(ctx, "failed to invalidate cached user", "userID", id, "error", err)
	}
}

// Close closes the wrapped store when it holds resources.
func (c *CachedUserStorage) Close(ctx context.Context) error {
	if closer, ok := c.UserStorage.(core.StorageCloser); ok {
		return closer.Close(ctx)
	}
	return nil
}
