package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireExclusive(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	ok, err := p.TryAcquire(ctx, "doctor:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.TryAcquire(ctx, "doctor:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquisition of a held key must fail")

	ok, err = p.TryAcquire(ctx, "doctor:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "different keys are independent")
}

func TestReleaseAllowsReacquire(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	ok, _ := p.TryAcquire(ctx, "doctor:1", time.Minute)
	require.True(t, ok)
	require.NoError(t, p.Release(ctx, "doctor:1"))

	ok, err := p.TryAcquire(ctx, "doctor:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTTLExpiryRecoversLock(t *testing.T) {
	now := time.Now()
	p := NewProvider().WithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, _ := p.TryAcquire(ctx, "doctor:1", 10*time.Second)
	require.True(t, ok)

	now = now.Add(5 * time.Second)
	ok, _ = p.TryAcquire(ctx, "doctor:1", 10*time.Second)
	assert.False(t, ok, "lock still live before TTL")

	now = now.Add(6 * time.Second)
	ok, _ = p.TryAcquire(ctx, "doctor:1", 10*time.Second)
	assert.True(t, ok, "expired lock must be reacquirable")
}
