package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// revocationKeyPrefix matches the key scheme the identity gateway writes
// revocations under. Changing it here without changing the gateway silently
// disables revocation checks.
const revocationKeyPrefix = "token:revoked:"

// TokenRevocationList answers whether a presented token has been revoked
// before its natural expiry. Revocations are written by the identity
// gateway on logout, password change, and forced sign-out; this service
// only reads them.
type TokenRevocationList interface {
	// IsTokenRevoked checks whether a single token's JTI has been revoked
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	// IsUserRevoked checks whether every session the user held at issuedAt
	// has been revoked. Tokens issued at or before the recorded revocation
	// instant are rejected.
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenRevocationList reads revocations from the Redis instance shared
// with the identity gateway
type RedisTokenRevocationList struct {
	client *redis.Client
}

// NewRedisTokenRevocationList creates a revocation list backed by an
// existing Redis client
func NewRedisTokenRevocationList(client *redis.Client) *RedisTokenRevocationList {
	return &RedisTokenRevocationList{client: client}
}

func revocationJTIKey(jti string) string {
	return revocationKeyPrefix + "jti:" + jti
}

func revocationUserKey(userID string) string {
	return revocationKeyPrefix + "user:" + userID
}

// IsTokenRevoked checks whether a single token's JTI has been revoked
func (l *RedisTokenRevocationList) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := l.client.Exists(ctx, revocationJTIKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

// IsUserRevoked checks whether the user's sessions were revoked at or after
// the instant the token was issued
func (l *RedisTokenRevocationList) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	value, err := l.client.Get(ctx, revocationUserKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	// The gateway stores the revocation instant as a Unix timestamp
	revokedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp %q: %w", value, err)
	}

	return issuedAt.Unix() <= revokedAt, nil
}

// Ensure RedisTokenRevocationList implements TokenRevocationList
var _ TokenRevocationList = (*RedisTokenRevocationList)(nil)

// InMemoryTokenRevocationList is a process-local revocation list for tests
// and single-instance development setups
type InMemoryTokenRevocationList struct {
	mu            sync.RWMutex
	revokedJTIs   map[string]time.Time // JTI -> entry expiry
	userRevokedAt map[string]time.Time // userID -> revocation instant
}

// NewInMemoryTokenRevocationList creates an empty in-memory revocation list
func NewInMemoryTokenRevocationList() *InMemoryTokenRevocationList {
	return &InMemoryTokenRevocationList{
		revokedJTIs:   make(map[string]time.Time),
		userRevokedAt: make(map[string]time.Time),
	}
}

// RevokeToken marks a single token as revoked. The entry expires with the
// token itself, so ttl should be the token's remaining lifetime.
func (l *InMemoryTokenRevocationList) RevokeToken(jti string, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revokedJTIs[jti] = time.Now().Add(ttl)
}

// RevokeUser revokes every session the user currently holds
func (l *InMemoryTokenRevocationList) RevokeUser(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userRevokedAt[userID] = time.Now()
}

// IsTokenRevoked checks whether a single token's JTI has been revoked
func (l *InMemoryTokenRevocationList) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, exists := l.revokedJTIs[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(l.revokedJTIs, jti)
		return false, nil
	}
	return true, nil
}

// IsUserRevoked checks whether the user's sessions were revoked at or after
// the instant the token was issued
func (l *InMemoryTokenRevocationList) IsUserRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	revokedAt, exists := l.userRevokedAt[userID]
	if !exists {
		return false, nil
	}
	// UnixNano keeps sub-second precision for callers that revoke and
	// check within the same second
	return issuedAt.UnixNano() <= revokedAt.UnixNano(), nil
}

// Ensure InMemoryTokenRevocationList implements TokenRevocationList
var _ TokenRevocationList = (*InMemoryTokenRevocationList)(nil)
