package pacing

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// seconds builds a Range from whole-second bounds.
func seconds(min, max float64) Range {
	return Range{
		Min: time.Duration(min * float64(time.Second)),
		Max: time.Duration(max * float64(time.Second)),
	}
}

// sequence replays fixed floats, wrapping around.
type sequence struct {
	vals []float64
	i    int
}

func (s *sequence) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// recorder is a Sleeper that records requested durations without blocking.
type recorder struct {
	slept []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func TestDelayWithinRange(t *testing.T) {
	p := New(testLogger, WithSource(rand.New(rand.NewPCG(42, 7))))
	r := seconds(2, 5)

	for i := 0; i < 1000; i++ {
		d := p.Delay(r)
		if d < 2*time.Second || d > 5*time.Second {
			t.Fatalf("sample %d out of range: %s", i, d)
		}
	}
}

func TestDelayConcurrent(t *testing.T) {
	p := New(testLogger, WithSource(rand.New(rand.NewPCG(1, 2))))
	r := seconds(2, 5)

	var wg sync.WaitGroup
	errs := make(chan time.Duration, 8*200)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if d := p.Delay(r); d < r.Min || d > r.Max {
					errs <- d
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for d := range errs {
		t.Errorf("sample out of range: %s", d)
	}
}

func TestDelayDeterministic(t *testing.T) {
	p := New(testLogger, WithSource(&sequence{vals: []float64{0, 0.5, 0.999999}}))
	r := seconds(2, 4)

	if d := p.Delay(r); d != 2*time.Second {
		t.Errorf("expected min, got %s", d)
	}
	if d := p.Delay(r); d != 3*time.Second {
		t.Errorf("expected midpoint, got %s", d)
	}
	if d := p.Delay(r); d > 4*time.Second || d < 3999*time.Millisecond {
		t.Errorf("expected near max, got %s", d)
	}
}

func TestDelayDegenerateRange(t *testing.T) {
	p := New(testLogger)
	if d := p.Delay(seconds(3, 3)); d != 3*time.Second {
		t.Errorf("expected 3s, got %s", d)
	}
}

func TestRandomDelaySleepsSampledDuration(t *testing.T) {
	rec := &recorder{}
	p := New(testLogger, WithSource(&sequence{vals: []float64{0.25}}), WithSleeper(rec.sleep))

	d, err := p.RandomDelay(context.Background(), seconds(2, 6))
	if err != nil {
		t.Fatalf("delay: %v", err)
	}
	if d != 3*time.Second {
		t.Errorf("expected 3s, got %s", d)
	}
	if len(rec.slept) != 1 || rec.slept[0] != d {
		t.Errorf("sleeper saw %v", rec.slept)
	}
}

func TestRandomDelayRejectsInvalidRange(t *testing.T) {
	p := New(testLogger, WithSleeper((&recorder{}).sleep))
	if _, err := p.RandomDelay(context.Background(), seconds(5, 2)); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := p.RandomDelay(context.Background(), Range{Min: -time.Second}); err == nil {
		t.Error("expected error for negative range")
	}
}

type countingScroller struct {
	n       int
	failAt  int
	failErr error
}

func (c *countingScroller) Scroll(ctx context.Context) error {
	c.n++
	if c.failAt > 0 && c.n == c.failAt {
		return c.failErr
	}
	return nil
}

func TestHumanScroll(t *testing.T) {
	rec := &recorder{}
	p := New(testLogger, WithSource(&sequence{vals: []float64{0.5}}), WithSleeper(rec.sleep))
	s := &countingScroller{}

	n, err := p.HumanScroll(context.Background(), s, 3, Range{Min: 500 * time.Millisecond, Max: time.Second})
	if err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if n != 3 || s.n != 3 {
		t.Errorf("expected 3 scrolls, got n=%d scroller=%d", n, s.n)
	}
	if len(rec.slept) != 3 {
		t.Fatalf("expected a wait after each scroll, got %d", len(rec.slept))
	}
	for _, d := range rec.slept {
		if d != 750*time.Millisecond {
			t.Errorf("expected 750ms wait, got %s", d)
		}
	}
}

func TestHumanScrollStopsOnError(t *testing.T) {
	boom := errors.New("detached")
	p := New(testLogger, WithSleeper((&recorder{}).sleep))
	s := &countingScroller{failAt: 2, failErr: boom}

	n, err := p.HumanScroll(context.Background(), s, 5, Range{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected scroll error, got %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 completed scroll, got %d", n)
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
