package service

import (
	"context"
	"errors"
	"sync"
	"time"

	appErrors "github.com/noah-isme/learnsmart-api/pkg/errors"
)

// TokenRevocationList remembers logged-out token ids until they expire.
type TokenRevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocationList keeps revoked ids in process memory.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, jti string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, exp := range l.entries {
		if now.After(exp) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = until
	return nil
}

func (l *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.entries[jti]
	if !ok {
		return false, nil
	}
	return l.now().Before(exp), nil
}

// CacheRevocationList stores revoked ids in the shared cache so every API
// replica rejects them.
type CacheRevocationList struct {
	repo CacheRepository
}

func NewCacheRevocationList(repo CacheRepository) *CacheRevocationList {
	return &CacheRevocationList{repo: repo}
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}

func (l *CacheRevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return l.repo.Set(ctx, revocationKey(jti), true, ttl)
}

func (l *CacheRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var revoked bool
	if err := l.repo.Get(ctx, revocationKey(jti), &revoked); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return revoked, nil
}
