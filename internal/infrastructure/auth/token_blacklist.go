package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates tokens before they expire
type TokenBlacklist interface {
	// Revoke blacklists one token by JTI for ttl, normally its remaining lifetime
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether the JTI was revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeTerminal rejects every token of a terminal issued before now
	RevokeTerminal(ctx context.Context, terminalID string, ttl time.Duration) error

	// IsTerminalRevoked reports whether a token issued at issuedAt was revoked by RevokeTerminal
	IsTerminalRevoked(ctx context.Context, terminalID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, keyPrefix: "receipt:token:blacklist:"}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) terminalKey(terminalID string) string {
	return b.keyPrefix + "terminal:" + terminalID
}

// Revoke adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// RevokeTerminal stores the revocation time for terminalID
func (b *RedisTokenBlacklist) RevokeTerminal(ctx context.Context, terminalID string, ttl time.Duration) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := b.client.Set(ctx, b.terminalKey(terminalID), now, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke terminal tokens: %w", err)
	}
	return nil
}

// IsTerminalRevoked compares issuedAt with the stored revocation time
func (b *RedisTokenBlacklist) IsTerminalRevoked(ctx context.Context, terminalID string, issuedAt time.Time) (bool, error) {
	val, err := b.client.Get(ctx, b.terminalKey(terminalID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check terminal revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

// InMemoryTokenBlacklist implements TokenBlacklist for single instance deployments
type InMemoryTokenBlacklist struct {
	mu        sync.RWMutex
	tokens    map[string]time.Time // jti -> expires at
	terminals map[string]time.Time // terminal -> revoked at
	now       func() time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:    make(map[string]time.Time),
		terminals: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Revoke adds a token's JTI to the blacklist
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for k, exp := range b.tokens {
		if !now.Before(exp) {
			delete(b.tokens, k)
		}
	}
	b.tokens[jti] = now.Add(ttl)
	return nil
}

// IsRevoked checks if a token's JTI is in the blacklist
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	exp, ok := b.tokens[jti]
	return ok && b.now().Before(exp), nil
}

// RevokeTerminal records the revocation time for terminalID
func (b *InMemoryTokenBlacklist) RevokeTerminal(_ context.Context, terminalID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.terminals[terminalID] = b.now()
	return nil
}

// IsTerminalRevoked compares issuedAt with the stored revocation time
func (b *InMemoryTokenBlacklist) IsTerminalRevoked(_ context.Context, terminalID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	revokedAt, ok := b.terminals[terminalID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(revokedAt), nil
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
