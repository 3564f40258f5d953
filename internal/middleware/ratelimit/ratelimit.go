package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/metrics"
)

// blockFactor is how far over the limit a caller must be before the extended
// cool-down block kicks in.
const blockFactor = 1.5

type entry struct {
	mu           sync.Mutex
	timestamps   []time.Time
	blockedUntil time.Time
}

// RateLimiter counts requests per identifier over sliding per-minute and
// per-hour windows. Callers far enough over a limit get an extended block of
// twice the offended window.
type RateLimiter struct {
	entries       map[string]*entry
	mu            sync.RWMutex
	perMinute     int
	perHour       int
	logger        *zap.Logger
	cleanupTicker *time.Ticker
	done          chan struct{}
	stopOnce      sync.Once
}

type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	Logger            *zap.Logger
}

// Decision reports the outcome of one check plus what callers need for
// rate-limit response headers.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func New(cfg Config) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	rl := &RateLimiter{
		entries:       make(map[string]*entry),
		perMinute:     cfg.RequestsPerMinute,
		perHour:       cfg.RequestsPerHour,
		logger:        cfg.Logger,
		cleanupTicker: time.NewTicker(5 * time.Minute),
		done:          make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID := c.Get("X-User-ID"); userID != "" {
			key = userID
		}

		decision := rl.Check(key)
		if !decision.Allowed {
			metrics.RateLimited.Inc()
			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
			)
			c.Set("Retry-After", fmt.Sprintf("%d", int(decision.RetryAfter.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": int(decision.RetryAfter.Seconds()),
			})
		}

		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		return c.Next()
	}
}

// Check applies both windows for key and records the request when allowed.
func (rl *RateLimiter) Check(key string) Decision {
	e := rl.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()

	if now.Before(e.blockedUntil) {
		return Decision{RetryAfter: e.blockedUntil.Sub(now)}
	}

	// Drop everything older than the largest window.
	cutoff := now.Add(-time.Hour)
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	windows := []struct {
		max      int
		duration time.Duration
	}{
		{rl.perMinute, time.Minute},
		{rl.perHour, time.Hour},
	}

	remaining := -1
	for _, w := range windows {
		count := 0
		windowStart := now.Add(-w.duration)
		for _, ts := range e.timestamps {
			if ts.After(windowStart) {
				count++
			}
		}

		if count >= w.max {
			// Denied attempts still count, so hammering past the limit
			// escalates to the extended block.
			e.timestamps = append(e.timestamps, now)
			if float64(count+1) > float64(w.max)*blockFactor {
				e.blockedUntil = now.Add(2 * w.duration)
			}
			return Decision{RetryAfter: w.duration}
		}

		if left := w.max - count - 1; remaining < 0 || left < remaining {
			remaining = left
		}
	}

	e.timestamps = append(e.timestamps, now)
	return Decision{Allowed: true, Remaining: remaining}
}

func (rl *RateLimiter) entry(key string) *entry {
	rl.mu.RLock()
	e, exists := rl.entries[key]
	rl.mu.RUnlock()
	if exists {
		return e
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if e, exists = rl.entries[key]; exists {
		return e
	}
	e = &entry{}
	rl.entries[key] = e
	return e
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTicker.C:
		}

		cutoff := time.Now().Add(-time.Hour)
		rl.mu.Lock()
		for key, e := range rl.entries {
			e.mu.Lock()
			stale := len(e.timestamps) == 0 || e.timestamps[len(e.timestamps)-1].Before(cutoff)
			stale = stale && time.Now().After(e.blockedUntil)
			e.mu.Unlock()
			if stale {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.done)
	})
}
