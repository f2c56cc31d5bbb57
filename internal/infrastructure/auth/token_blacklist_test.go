package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Minute))
	revoked, _ = b.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = b.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked, "entries expire with the token")

	require.NoError(t, b.Revoke(ctx, "jti-2", time.Minute))
	assert.NotContains(t, b.tokens, "jti-1", "expired entries are pruned on write")
}

func TestInMemoryTokenBlacklist_RevokeTerminal(t *testing.T) {
	b := NewInMemoryTokenBlacklist()
	revokedAt := time.Now()
	b.now = func() time.Time { return revokedAt }
	ctx := context.Background()

	require.NoError(t, b.RevokeTerminal(ctx, "caixa-01", time.Hour))

	tests := []struct {
		name     string
		terminal string
		issuedAt time.Time
		want     bool
	}{
		{"issued before", "caixa-01", revokedAt.Add(-time.Minute), true},
		{"issued at revocation", "caixa-01", revokedAt, true},
		{"issued after", "caixa-01", revokedAt.Add(time.Minute), false},
		{"other terminal", "caixa-02", revokedAt.Add(-time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.IsTerminalRevoked(ctx, tt.terminal, tt.issuedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
