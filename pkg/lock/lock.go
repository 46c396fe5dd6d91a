package lock

import (
	"context"
	"time"
)

// Provider is a distributed, expiring lock keyed by an arbitrary
// string. TryAcquire is non-blocking: it returns false when the key
// is already held. The TTL is the crash-recovery path: a holder that
// never releases loses the lock once the TTL expires.
type Provider interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
