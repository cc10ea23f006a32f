// Package pacing inserts randomized, human-like delays and scrolls between
// automated browser actions.
package pacing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Range is an inclusive delay interval.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Validate rejects negative bounds and inverted ranges.
func (r Range) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("delay range must be non-negative, got [%s, %s]", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("delay range min %s exceeds max %s", r.Min, r.Max)
	}
	return nil
}

// Source yields uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Scroller is anything that can scroll to the bottom of a page.
type Scroller interface {
	Scroll(ctx context.Context) error
}

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer produces delays from an injected randomness source. It keeps no
// state between calls beyond the source itself, and is safe for concurrent
// use.
type Pacer struct {
	mu     sync.Mutex
	rng    Source
	sleep  Sleeper
	logger *slog.Logger
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithSource sets the randomness source.
func WithSource(src Source) Option {
	return func(p *Pacer) { p.rng = src }
}

// WithSleeper replaces the function used to wait.
func WithSleeper(s Sleeper) Option {
	return func(p *Pacer) { p.sleep = s }
}

// New creates a Pacer. Without options it uses a randomly seeded PCG source
// and real sleeps.
func New(logger *slog.Logger, opts ...Option) *Pacer {
	p := &Pacer{
		sleep:  SleepContext,
		logger: logger.With("component", "pacer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Delay samples a duration uniformly from r without sleeping.
func (p *Pacer) Delay(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	f := p.rng.Float64()
	p.mu.Unlock()

	d := r.Min + time.Duration(f*float64(r.Max-r.Min))
	if d > r.Max {
		d = r.Max
	}
	return d
}

// RandomDelay sleeps for a duration sampled from r and returns it.
func (p *Pacer) RandomDelay(ctx context.Context, r Range) (time.Duration, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	d := p.Delay(r)
	p.logger.Debug("waiting", "delay", d.Round(10*time.Millisecond))
	return d, p.sleep(ctx, d)
}

// HumanScroll scrolls to the bottom steps times, waiting a random duration
// from wait after each scroll so lazy-loaded content can render. It returns
// the number of scrolls completed.
func (p *Pacer) HumanScroll(ctx context.Context, s Scroller, steps int, wait Range) (int, error) {
	if err := wait.Validate(); err != nil {
		return 0, err
	}
	for i := 0; i < steps; i++ {
		if err := s.Scroll(ctx); err != nil {
			return i, fmt.Errorf("scroll %d/%d: %w", i+1, steps, err)
		}
		if err := p.sleep(ctx, p.Delay(wait)); err != nil {
			return i + 1, err
		}
		p.logger.Debug("scrolled", "step", i+1, "of", steps)
	}
	return steps, nil
}
