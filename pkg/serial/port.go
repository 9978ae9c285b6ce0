package serial

import (
	"bytes"
	"sync"
	"time"

	goserial "go.bug.st/serial"
)

const (
	// DefaultReadTimeout bounds a ReadLine call when the caller passes zero.
	DefaultReadTimeout = 2 * time.Second

	// DefaultQuietGap ends an unterminated line once bytes stop arriving.
	DefaultQuietGap = 200 * time.Millisecond

	// pollInterval is the driver read timeout used while waiting for bytes.
	pollInterval = 50 * time.Millisecond

	// maxLineLength caps a single line to guard against a noisy link.
	maxLineLength = 1024
)

// Link is a line-oriented channel to one module.
type Link interface {
	// WriteLine appends the active line ending and transmits text.
	WriteLine(text string) error

	// ReadLine blocks up to timeout and returns the next line without its
	// terminator, or ErrTimeout.
	ReadLine(timeout time.Duration) (string, error)

	// Flush discards any unread input.
	Flush() error

	// Close releases the device. Calling Close more than once is safe.
	Close() error
}

// Dialer opens a Link on a named port with a profile.
type Dialer interface {
	Dial(port string, p Profile) (Link, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(port string, p Profile) (Link, error)

// Dial calls f(port, p).
func (f DialerFunc) Dial(port string, p Profile) (Link, error) {
	return f(port, p)
}

// DefaultDialer opens real serial ports.
var DefaultDialer Dialer = DialerFunc(func(port string, p Profile) (Link, error) {
	return Open(port, p, DefaultReadTimeout)
})

// portHandle is the subset of go.bug.st/serial.Port used by Port.
type portHandle interface {
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// openPort is replaced in tests.
var openPort = func(name string, mode *goserial.Mode) (portHandle, error) {
	return goserial.Open(name, mode)
}

// held tracks devices opened by this process.
var (
	heldMu sync.Mutex
	held   = map[string]bool{}
)

// Port is a Link over a physical serial device.
type Port struct {
	name        string
	profile     Profile
	readTimeout time.Duration
	quietGap    time.Duration

	mu      sync.Mutex
	handle  portHandle
	pending []byte
	closed  bool
}

// Open opens the named device at the profile's baud rate (8N1).
// readTimeout is used by ReadLine when called with a zero timeout.
func Open(name string, p Profile, readTimeout time.Duration) (*Port, error) {
	heldMu.Lock()
	if held[name] {
		heldMu.Unlock()
		return nil, &OpenError{Port: name, Err: ErrPortBusy}
	}
	held[name] = true
	heldMu.Unlock()

	h, err := openPort(name, &goserial.Mode{
		BaudRate: p.Baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	})
	if err != nil {
		release(name)
		return nil, classifyOpenError(name, err)
	}

	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Port{
		name:        name,
		profile:     p,
		readTimeout: readTimeout,
		quietGap:    DefaultQuietGap,
		handle:      h,
	}, nil
}

func release(name string) {
	heldMu.Lock()
	delete(held, name)
	heldMu.Unlock()
}

// Name returns the device name.
func (p *Port) Name() string { return p.name }

// Profile returns the profile the port was opened with.
func (p *Port) Profile() Profile { return p.profile }

// WriteLine appends the profile's line ending and writes text.
func (p *Port) WriteLine(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	payload := append([]byte(text), p.profile.LineEnding.Bytes()...)
	for len(payload) > 0 {
		n, err := p.handle.Write(payload)
		if err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

// ReadLine returns the next line. A line ends at '\n' or, once bytes have
// arrived, after a quiet gap with no further input.
func (p *Port) ReadLine(timeout time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrClosed
	}
	if timeout <= 0 {
		timeout = p.readTimeout
	}

	deadline := time.Now().Add(timeout)
	lastData := time.Now()
	buf := make([]byte, 128)

	for {
		if line, ok := p.takeLine(); ok {
			return line, nil
		}

		now := time.Now()
		if len(p.pending) > 0 && now.Sub(lastData) >= p.quietGap {
			return p.takeAll(), nil
		}
		if !now.Before(deadline) {
			if len(p.pending) > 0 {
				return p.takeAll(), nil
			}
			return "", ErrTimeout
		}

		wait := min(deadline.Sub(now), pollInterval)
		if err := p.handle.SetReadTimeout(wait); err != nil {
			return "", err
		}
		n, err := p.handle.Read(buf)
		if err != nil {
			return "", err
		}
		if n > 0 {
			p.pending = append(p.pending, buf[:n]...)
			lastData = time.Now()
			if len(p.pending) > maxLineLength {
				return p.takeAll(), nil
			}
		}
	}
}

// takeLine pops one '\n'-terminated line from pending, skipping blank ones.
func (p *Port) takeLine() (string, bool) {
	for {
		i := bytes.IndexByte(p.pending, '\n')
		if i < 0 {
			return "", false
		}
		line := string(bytes.TrimRight(p.pending[:i], "\r"))
		p.pending = p.pending[i+1:]
		if line != "" {
			return line, true
		}
	}
}

func (p *Port) takeAll() string {
	line := string(bytes.TrimRight(p.pending, "\r\n"))
	p.pending = p.pending[:0]
	return line
}

// Flush drops buffered and driver-side input.
func (p *Port) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.pending = p.pending[:0]
	return p.handle.ResetInputBuffer()
}

// Close closes the device. It is safe to call Close multiple times.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	release(p.name)
	return p.handle.Close()
}

// Compile-time interface satisfaction check.
var _ Link = (*Port)(nil)
