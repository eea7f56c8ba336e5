package services

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between consecutive calls to one source.
//
// Calls are serialized: the next call starts no earlier than interval after the
// previous call completed, whether it succeeded or failed.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// LimiterOption configures a [Limiter].
type LimiterOption func(*Limiter)

// WithLimiterClock replaces the time source and sleep function, for tests.
func WithLimiterClock(now func() time.Time, sleep func(context.Context, time.Duration) error) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// NewLimiter creates a limiter with the given minimum interval. Zero disables pacing.
func NewLimiter(interval time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the configured spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Do waits for the interval to elapse since the last completed call, then runs fn.
// It returns ctx.Err() without calling fn if the context ends while waiting.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() && l.interval > 0 {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	err := fn(ctx)
	l.last = l.now()
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
