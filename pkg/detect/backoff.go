package detect

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/hclink/hclink-go/pkg/serial"
)

// Backoff constants for waiting on a port that is not there yet.
const (
	// InitialBackoff is the first delay after a missing port.
	InitialBackoff = 200 * time.Millisecond

	// MaxBackoff caps the delay between dial attempts.
	MaxBackoff = 2 * time.Second

	// BackoffMultiplier is the factor by which backoff increases.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of base delay.
	JitterFactor = 0.25
)

// Backoff calculates exponential backoff delays with jitter.
type Backoff struct {
	mu sync.Mutex

	current    time.Duration
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	attempts   int

	rng *rand.Rand
}

// BackoffConfig allows customizing backoff parameters.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NewBackoff creates a backoff calculator. Zero fields take the defaults;
// a negative Jitter disables jitter.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = JitterFactor
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		current:    cfg.Initial,
		initial:    cfg.Initial,
		max:        cfg.Max,
		multiplier: cfg.Multiplier,
		jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current
	if b.jitter > 0 {
		delay += time.Duration(float64(delay) * b.jitter * b.rng.Float64())
	}

	b.attempts++
	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Reset returns the backoff to its initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// dial opens port, retrying while the device is missing and wait has not
// elapsed. USB adapters re-enumerate for a moment after a module swap.
func (d *Detector) dial(ctx context.Context, port string, p serial.Profile) (serial.Link, error) {
	link, err := d.dialer.Dial(port, p)
	if err == nil || d.config.PortWait <= 0 || !errors.Is(err, serial.ErrPortNotFound) {
		return link, err
	}

	deadline := time.Now().Add(d.config.PortWait)
	b := NewBackoff(BackoffConfig{})
	for {
		delay := b.Next()
		if time.Now().Add(delay).After(deadline) {
			return nil, err
		}
		d.debug("waiting for port", "port", port, "delay", delay, "attempt", b.Attempts())

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}

		link, err = d.dialer.Dial(port, p)
		if err == nil || !errors.Is(err, serial.ErrPortNotFound) {
			return link, err
		}
	}
}
