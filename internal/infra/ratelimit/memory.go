// Package ratelimit provides fixed-window request limiters. The redis
// limiter is authoritative across replicas; the memory limiter covers
// single-process and test deployments.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"medsupply/internal/domain"
)

const defaultMaxKeys = 10000

type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

type window struct {
	hits  int
	until time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) domain.RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = defaultMaxKeys
	}
	return &memoryLimiter{
		now:     cfg.Now,
		windows: make(map[string]*window),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, windowLen time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if ok && now.After(w.until) {
		delete(m.windows, key)
		w = nil
		ok = false
	}
	if !ok {
		if len(m.windows) >= m.maxKeys {
			m.sweep(now)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
		w = &window{until: now.Add(windowLen)}
		m.windows[key] = w
	}

	if w.hits < limit {
		w.hits++
		return domain.RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - w.hits,
			ResetAt:   w.until,
		}, nil
	}
	return domain.RateLimitDecision{
		Allowed:   false,
		Limit:     limit,
		Remaining: 0,
		ResetAt:   w.until,
	}, nil
}

func (m *memoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if now.After(w.until) {
			delete(m.windows, key)
		}
	}
}
