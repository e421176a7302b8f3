// Package ratelimit provides per-host token-bucket rate limiting for the
// upstream data providers.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a per-host token-bucket limiter. Hosts are tracked lazily so a
// single limiter instance can front every provider.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// New creates a limiter allowing rps requests per second with the given
// burst capacity per host.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[host] = lim
	return lim
}

// Allow reports whether a request to host may proceed immediately.
func (l *Limiter) Allow(host string) bool {
	return l.hostLimiter(host).Allow()
}

// Wait blocks until a request to host is allowed or the context is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.hostLimiter(host).Wait(ctx)
}

// Tokens returns the tokens currently available for host.
func (l *Limiter) Tokens(host string) float64 {
	return l.hostLimiter(host).Tokens()
}
