package services

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/gersa/internal/models"
)

// RatesResolver resolves the point values of a year, nil when none is recorded.
type RatesResolver interface {
	ValeurPointByYear(ctx context.Context, annee int) (*models.ValeurPoint, error)
}

// CachedRates wraps a RatesResolver with TTL-based caching.
// Absent years are cached too, so writers must invalidate.
type CachedRates struct {
	inner RatesResolver
	cache map[int]*ratesEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type ratesEntry struct {
	vp        *models.ValeurPoint
	expiresAt time.Time
}

func NewCachedRates(inner RatesResolver, ttl time.Duration) *CachedRates {
	return &CachedRates{
		inner: inner,
		cache: make(map[int]*ratesEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// ValeurPointByYear returns a copy of the cached row so callers cannot mutate the cache.
func (r *CachedRates) ValeurPointByYear(ctx context.Context, annee int) (*models.ValeurPoint, error) {
	r.mu.RLock()
	entry, ok := r.cache[annee]
	r.mu.RUnlock()

	if ok && r.now().Before(entry.expiresAt) {
		return clone(entry.vp), nil
	}

	vp, err := r.inner.ValeurPointByYear(ctx, annee)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[annee] = &ratesEntry{vp: clone(vp), expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return vp, nil
}

// Invalidate drops one year.
func (r *CachedRates) Invalidate(annee int) {
	r.mu.Lock()
	delete(r.cache, annee)
	r.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (r *CachedRates) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[int]*ratesEntry)
	r.mu.Unlock()
}

func clone(vp *models.ValeurPoint) *models.ValeurPoint {
	if vp == nil {
		return nil
	}
	c := *vp
	return &c
}
