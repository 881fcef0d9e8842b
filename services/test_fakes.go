package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Keshav-Madhav/mern-authorization/core"
)

// FakeUserStorage is a test-only fake implementing core.UserStorage.
// Records are copied in and out so callers cannot mutate stored state
// outside the update methods, like a real database. Each update checks its
// condition and writes under one lock. Email and reset token hash are
// unique, mirroring the store indexes.
type FakeUserStorage struct {
	mu     sync.RWMutex
	users  map[string]*core.User
	nextID int

	createErr error
	getErr    error
	updateErr error

	// Calls counts GetUserByID lookups reaching the fake.
	Calls int
}

var _ core.UserStorage = (*FakeUserStorage)(nil)

func NewFakeUserStorage() *FakeUserStorage {
	return &FakeUserStorage{users: make(map[string]*core.User)}
}

func (f *FakeUserStorage) SetCreateError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *FakeUserStorage) SetGetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *FakeUserStorage) SetUpdateError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateErr = err
}

func (f *FakeUserStorage) CreateUser(_ context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrUserExists
		}
	}

	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	f.users[u.ID] = u.Clone()
	return nil
}

func (f *FakeUserStorage) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++

	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeUserStorage) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	return f.find(func(u *core.User) bool { return u.Email == email })
}

func (f *FakeUserStorage) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (*core.User, error) {
	return f.find(func(u *core.User) bool { return u.ResetValid(tokenHash, now) })
}

func (f *FakeUserStorage) VerifyUser(_ context.Context, email, code string, now time.Time) (*core.User, error) {
	return f.update(
		func(u *core.User) bool { return u.Email == email && u.VerificationValid(code, now) },
		func(u *core.User) error {
			u.MarkVerified()
			u.UpdatedAt = now
			return nil
		},
	)
}

func (f *FakeUserStorage) SetVerificationToken(_ context.Context, id, code string, expiresAt, now time.Time) error {
	_, err := f.update(
		func(u *core.User) bool { return u.ID == id && !u.IsVerified },
		func(u *core.User) error {
			u.SetVerificationToken(code, expiresAt)
			u.UpdatedAt = now
			return nil
		},
	)
	return err
}

func (f *FakeUserStorage) SetResetToken(_ context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	_, err := f.update(
		func(u *core.User) bool { return u.ID == id },
		func(u *core.User) error {
			for otherID, other := range f.users {
				if otherID != id && other.ResetPasswordToken != nil && *other.ResetPasswordToken == tokenHash {
					return core.ErrUserExists
				}
			}
			u.SetResetToken(tokenHash, expiresAt)
			u.UpdatedAt = now
			return nil
		},
	)
	return err
}

func (f *FakeUserStorage) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (*core.User, error) {
	return f.update(
		func(u *core.User) bool { return u.ResetValid(tokenHash, now) },
		func(u *core.User) error {
			u.PasswordHash = passwordHash
			u.ClearResetToken()
			u.UpdatedAt = now
			return nil
		},
	)
}

func (f *FakeUserStorage) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	_, err := f.update(
		func(u *core.User) bool { return u.ID == id },
		func(u *core.User) error {
			u.LastLogin = at
			u.UpdatedAt = at
			return nil
		},
	)
	return err
}

// update applies apply to the first record matching match, atomically,
// and returns a copy of the result.
func (f *FakeUserStorage) update(match func(*core.User) bool, apply func(*core.User) error) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for id, u := range f.users {
		if !match(u) {
			continue
		}
		next := u.Clone()
		if err := apply(next); err != nil {
			return nil, err
		}
		f.users[id] = next
		return next.Clone(), nil
	}
	return nil, core.ErrUserNotFound
}

// Put stores u directly, bypassing every check.
func (f *FakeUserStorage) Put(u *core.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u.Clone()
}

// Len returns the number of stored users.
func (f *FakeUserStorage) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.users)
}

func (f *FakeUserStorage) find(match func(*core.User) bool) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, core.ErrUserNotFound
}

// SentEmail records one call to FakeNotifier.
type SentEmail struct {
	Kind  string
	To    string
	Value string // code, name or reset URL depending on Kind
}

// FakeNotifier is a test-only fake implementing core.Notifier.
type FakeNotifier struct {
	mu   sync.Mutex
	sent []SentEmail
	err  error
}

var _ core.Notifier = (*FakeNotifier)(nil)

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// SetError makes every send fail with err after recording the attempt.
func (f *FakeNotifier) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeNotifier) Sent() []SentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentEmail(nil), f.sent...)
}

// Last returns the most recent email of the given kind.
func (f *FakeNotifier) Last(kind string) (SentEmail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Kind == kind {
			return f.sent[i], true
		}
	}
	return SentEmail{}, false
}

func (f *FakeNotifier) record(kind, to, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, SentEmail{Kind: kind, To: to, Value: value})
	return f.err
}

func (f *FakeNotifier) SendVerificationEmail(_ context.Context, email, code string) error {
	return f.record("verification", email, code)
}

func (f *FakeNotifier) SendWelcomeEmail(_ context.Context, email, name string) error {
	return f.record("welcome", email, name)
}

func (f *FakeNotifier) SendPasswordResetEmail(_ context.Context, email, resetURL string) error {
	return f.record("reset", email, resetURL)
}

func (f *FakeNotifier) SendResetSuccessEmail(_ context.Context, email string) error {
	return f.record("resetSuccess", email, "")
}

// FakeCache is a test-only fake implementing core.Cache.
type FakeCache struct {
	mu     sync.RWMutex
	cache  map[string]*core.User
	setErr error
	delErr error
}

var _ core.Cache = (*FakeCache)(nil)

func NewFakeCache() *FakeCache {
	return &FakeCache{cache: make(map[string]*core.User)}
}

func (f *FakeCache) SetSetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

func (f *FakeCache) SetDeleteError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delErr = err
}

func (f *FakeCache) Get(_ context.Context, key string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.cache[key]
	if !ok {
		return nil, core.ErrCacheNotFound
	}
	return u.Clone(), nil
}

func (f *FakeCache) Set(_ context.Context, key string, user *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.cache[key] = user.Clone()
	return nil
}

func (f *FakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.cache, key)
	return nil
}

func (f *FakeCache) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]*core.User)
	return nil
}

func (f *FakeCache) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}
