package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hclink/hclink-go/internal/fakemodule"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/serial"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff(BackoffConfig{Jitter: -1})
	want := []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		2 * time.Second,
		2 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.Next(), "step %d", i)
	}
	assert.Equal(t, len(want), b.Attempts())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, 200*time.Millisecond, b.Next())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond})
	d := b.Next()
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 125*time.Millisecond)
}

func TestDetectWaitsForPort(t *testing.T) {
	b := fakemodule.NewBench()
	go func() {
		time.Sleep(300 * time.Millisecond)
		b.Attach("COM1", fakemodule.NewHC05(""))
	}()

	d := New(b, Config{RetryDelay: -1, PortWait: 5 * time.Second})
	det, err := d.Detect(context.Background(), "COM1")
	require.NoError(t, err)
	assert.Equal(t, dialect.HC05, det.Module)
	assert.Greater(t, len(b.Dials()), 1)
}

func TestDetectPortWaitExpires(t *testing.T) {
	b := fakemodule.NewBench()
	d := New(b, Config{RetryDelay: -1, PortWait: 300 * time.Millisecond})

	start := time.Now()
	_, err := d.Detect(context.Background(), "COM1")
	assert.ErrorIs(t, err, serial.ErrPortNotFound)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDetectPortWaitCancelled(t *testing.T) {
	b := fakemodule.NewBench()
	d := New(b, Config{RetryDelay: -1, PortWait: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := d.Detect(ctx, "COM1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
