package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

const defaultKeyPrefix = "auth:user:"

var _ core.Cache = (*RedisCache)(nil)

// RedisCache shares cached users between server instances.
//
// Entries are JSON documents of cachedUser; the plain core.User JSON view
// hides credentials, so it cannot be used here.
type RedisCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

type cachedUser struct {
	ID                         string     `json:"id"`
	Email                      string     `json:"email"`
	Name                       string     `json:"name"`
	PasswordHash               string     `json:"passwordHash"`
	IsVerified                 bool       `json:"isVerified"`
	VerificationToken          *string    `json:"verificationToken,omitempty"`
	VerificationTokenExpiresAt *time.Time `json:"verificationTokenExpiresAt,omitempty"`
	ResetPasswordToken         *string    `json:"resetPasswordToken,omitempty"`
	ResetPasswordExpiresAt     *time.Time `json:"resetPasswordExpiresAt,omitempty"`
	LastLogin                  time.Time  `json:"lastLogin"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
}

func NewRedisCache(rdb redis.UniversalClient, c core.CacheConfig) *RedisCache {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: c.TTL, prefix: defaultKeyPrefix}
}

// NewRedisCacheFromURL parses a redis:// URL the same way the job queue does.
func NewRedisCacheFromURL(url string, c core.CacheConfig) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisCache(redis.NewClient(opt), c), nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (*core.User, error) {
	data, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrCacheNotFound
		}
		return nil, err
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return cu.toUser(), nil
}

func (r *RedisCache) Set(ctx context.Context, key string, user *core.User) error {
	payload, err := json.Marshal(fromUser(user))
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.prefix+key, payload, r.ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}

// Clear removes every key under the cache prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

func fromUser(u *core.User) cachedUser {
	return cachedUser{
		ID:                         u.ID,
		Email:                      u.Email,
		Name:                       u.Name,
		PasswordHash:               u.PasswordHash,
		IsVerified:                 u.IsVerified,
		VerificationToken:          u.VerificationToken,
		VerificationTokenExpiresAt: u.VerificationTokenExpiresAt,
		ResetPasswordToken:         u.ResetPasswordToken,
		ResetPasswordExpiresAt:     u.ResetPasswordExpiresAt,
		LastLogin:                  u.LastLogin,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
}

func (cu cachedUser) toUser() *core.User {
	return &core.User{
		ID:                         cu.ID,
		Email:                      cu.Email,
		Name:                       cu.Name,
		PasswordHash:               cu.PasswordHash,
		IsVerified:                 cu.IsVerified,
		VerificationToken:          cu.VerificationToken,
		VerificationTokenExpiresAt: cu.VerificationTokenExpiresAt,
		ResetPasswordToken:         cu.ResetPasswordToken,
		ResetPasswordExpiresAt:     cu.ResetPasswordExpiresAt,
		LastLogin:                  cu.LastLogin,
		CreatedAt:                  cu.CreatedAt,
		UpdatedAt:                  cu.UpdatedAt,
	}
}
