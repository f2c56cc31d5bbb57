package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/receipt/internal/domain/shared"
	"github.com/erp/receipt/internal/infrastructure/config"
)

func newStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	t.Helper()
	s := NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = s.Close() })
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, found, err := s.Lookup(ctx, "sale-1")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := s.Reserve(ctx, "sale-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "sale-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must fail")

	payload, found, err := s.Lookup(ctx, "sale-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, payload, "in-flight key has no payload yet")

	require.NoError(t, s.Complete(ctx, "sale-1", []byte(`{"success":true}`), time.Hour))
	payload, found, err = s.Lookup(ctx, "sale-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"success":true}`, string(payload))
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, _ = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, s.Release(ctx, "k"))

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	s, now := newStore(t)
	ctx := context.Background()

	_, _ = s.Reserve(ctx, "a", time.Minute)
	require.NoError(t, s.Complete(ctx, "b", []byte("x"), time.Hour))
	*now = now.Add(2 * time.Minute)

	_, found, _ := s.Lookup(ctx, "a")
	assert.False(t, found)
	ok, _ := s.Reserve(ctx, "a", time.Minute)
	assert.True(t, ok, "expired reservation can be claimed again")

	*now = now.Add(2 * time.Hour)
	s.cleanup()
	assert.Equal(t, 0, s.Size())
}

func TestInMemoryIdempotencyStore_CompleteCopiesPayload(t *testing.T) {
	s, _ := newStore(t)
	buf := []byte("original")
	require.NoError(t, s.Complete(context.Background(), "k", buf, time.Hour))
	buf[0] = 'X'

	payload, _, _ := s.Lookup(context.Background(), "k")
	assert.Equal(t, "original", string(payload))
}

func TestInMemoryIdempotencyStore_ConcurrentReserve(t *testing.T) {
	s := NewInMemoryIdempotencyStore(0)
	defer s.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Reserve(context.Background(), "same", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	s := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	t.Run("redis disabled uses memory", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{})
		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis unreachable falls back with warning", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true}, WithLogger(zap.New(core)))
		f.dialRedis = func(config.RedisConfig) (shared.IdempotencyStore, error) {
			return nil, errors.New("connection refused")
		}

		store, err := f.CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("redis unreachable without fallback fails", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true}, WithInMemoryFallback(false))
		f.dialRedis = func(config.RedisConfig) (shared.IdempotencyStore, error) {
			return nil, errors.New("connection refused")
		}

		_, err := f.CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}
