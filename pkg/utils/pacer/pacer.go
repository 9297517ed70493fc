package pacer

import (
	"context"
	"time"
)

// Pacer enforces a fixed minimum interval between successive calls.
// The first Wait returns immediately; later calls sleep until the
// interval since the previous admission has elapsed. A Pacer is not
// safe for concurrent use; each caller sequence owns its own instance.
type Pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes a Pacer, mainly for tests
type Option func(*Pacer)

// WithClock replaces the time source and sleep function
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pacer) {
		p.now = now
		p.sleep = sleep
	}
}

// New creates a Pacer with the given interval. A zero or negative
// interval disables pacing entirely.
func New(interval time.Duration, opts ...Option) *Pacer {
	p := &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until the interval since the previous admission has
// elapsed, or returns early with the context error when ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	now := p.now()
	if !p.last.IsZero() {
		if remain := p.interval - now.Sub(p.last); remain > 0 {
			if err := p.sleep(ctx, remain); err != nil {
				return err
			}
			now = p.now()
		}
	}
	p.last = now
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
