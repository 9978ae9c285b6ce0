package fakemodule

import (
	"fmt"
	"sync"
	"time"

	"github.com/hclink/hclink-go/pkg/serial"
)

// Dial records one Dial call.
type Dial struct {
	Port    string
	Profile serial.Profile
}

// Bench wires simulated modules to port names and implements serial.Dialer.
type Bench struct {
	mu      sync.Mutex
	modules map[string]*Module
	open    map[string]int
	dials   []Dial
	writes  []string
}

// NewBench returns an empty bench.
func NewBench() *Bench {
	return &Bench{
		modules: make(map[string]*Module),
		open:    make(map[string]int),
	}
}

// Attach connects m to port, replacing any module already there.
func (b *Bench) Attach(port string, m *Module) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modules[port] = m
}

// Detach removes the module on port. Later dials fail with ErrPortNotFound.
func (b *Bench) Detach(port string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.modules, port)
}

// Dials returns the recorded Dial calls in order.
func (b *Bench) Dials() []Dial {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Dial(nil), b.dials...)
}

// Writes returns every line written to any port, matching profile or not.
func (b *Bench) Writes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.writes...)
}

func (b *Bench) recordWrite(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, text)
}

// OpenLinks returns the number of links on port not yet closed.
func (b *Bench) OpenLinks(port string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[port]
}

// Dial opens a link to the module on port. A second link to the same port
// fails with ErrPortBusy until the first is closed.
func (b *Bench) Dial(port string, p serial.Profile) (serial.Link, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dials = append(b.dials, Dial{Port: port, Profile: p})
	m, ok := b.modules[port]
	if !ok {
		return nil, &serial.OpenError{Port: port, Err: serial.ErrPortNotFound}
	}
	if b.open[port] > 0 {
		return nil, &serial.OpenError{Port: port, Err: serial.ErrPortBusy}
	}
	b.open[port]++
	return &link{bench: b, port: port, module: m, profile: p}, nil
}

func (b *Bench) release(port string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open[port] > 0 {
		b.open[port]--
	}
}

// link answers only when opened with the module's own profile; any other
// profile sees silence, as a real module would return garbage or nothing.
type link struct {
	bench   *Bench
	port    string
	module  *Module
	profile serial.Profile

	mu      sync.Mutex
	pending []string
	closed  bool
}

func (l *link) WriteLine(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return serial.ErrClosed
	}
	l.bench.recordWrite(text)
	if l.profile != l.module.Profile {
		return nil
	}
	l.pending = append(l.pending, l.module.respond(text)...)
	return nil
}

// ReadLine never sleeps: an empty queue is an immediate timeout.
func (l *link) ReadLine(time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", serial.ErrClosed
	}
	if len(l.pending) == 0 {
		return "", serial.ErrTimeout
	}
	line := l.pending[0]
	l.pending = l.pending[1:]
	return line, nil
}

func (l *link) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return serial.ErrClosed
	}
	l.pending = nil
	return nil
}

func (l *link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.bench.release(l.port)
	return nil
}

func (l *link) String() string {
	return fmt.Sprintf("fake link %s (%s)", l.port, l.profile)
}

var (
	_ serial.Dialer = (*Bench)(nil)
	_ serial.Link   = (*link)(nil)
)
