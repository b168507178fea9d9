package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Registry hands out one token-bucket limiter per client id.
type Registry struct {
	limiters        map[string]*rate.Limiter
	rate            rate.Limit
	burst           int
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

func NewRegistry(perSecond float64, burst int) *Registry {
	r := &Registry{
		limiters:        make(map[string]*rate.Limiter),
		rate:            rate.Limit(perSecond),
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	go r.cleanup()
	return r
}

func (r *Registry) Get(clientID string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[clientID]
	r.mu.RUnlock()

	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[clientID]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(r.rate, r.burst)
	r.limiters[clientID] = limiter
	return limiter
}

func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, clientID)
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Resets the map when it grows past a sane bound. Limiters for connected
// clients are re-created on their next message.
func (r *Registry) cleanup() {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if len(r.limiters) > 10000 {
				r.limiters = make(map[string]*rate.Limiter)
			}
			r.mu.Unlock()
		}
	}
}
