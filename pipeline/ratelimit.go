package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/civet"
	"golang.org/x/time/rate"
)

var _ civet.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter enforces per-domain request rates with token buckets.
// Each domain gets its own limiter, so a batch run can hit many portals
// concurrently while staying polite to each one.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per domain, with no bursting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the domain's limiter permits a request, or the context
// is canceled.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
