package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-queue/pkg/lock"
)

// Provider is an in-process lock.Provider for tests and single-node
// deployments. Expiry is checked lazily on the next acquisition.
type Provider struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewProvider() *Provider {
	return &Provider{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (p *Provider) WithClock(clock func() time.Time) *Provider {
	p.clock = clock
	return p
}

func (p *Provider) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	if expiry, ok := p.held[key]; ok && now.Before(expiry) {
		return false, nil
	}
	p.held[key] = now.Add(ttl)
	return true, nil
}

func (p *Provider) Release(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.held, key)
	return nil
}

var _ lock.Provider = (*Provider)(nil)
