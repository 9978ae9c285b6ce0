package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/pairing"
)

// errInterrupted is returned when the user presses Ctrl-C at a prompt.
var errInterrupted = errors.New("interrupted")

// lineReader is the part of *readline.Instance the prompts use.
type lineReader interface {
	Readline() (string, error)
}

func newReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "abort",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// Prompter asks the user to swap modules and to pick a device.
type Prompter struct {
	in  lineReader
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and writing to out.
func NewPrompter(in lineReader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

type readResult struct {
	line string
	err  error
}

// read returns the next line or ctx's error, whichever comes first. A
// pending Readline is abandoned on cancellation.
func (p *Prompter) read(ctx context.Context) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := p.in.Readline()
		ch <- readResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if errors.Is(r.err, readline.ErrInterrupt) {
			return "", errInterrupted
		}
		if r.err != nil {
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	}
}

// AwaitSwap tells the user to replace the slave with the master and waits
// for Enter. A typed path selects a different port for the master.
func (p *Prompter) AwaitSwap(ctx context.Context, req pairing.SwapRequest) (string, error) {
	fmt.Fprintf(p.out, "\nSlave configured. Address %s resolved.\n", req.Address)
	fmt.Fprintf(p.out, "Disconnect the slave from %s and connect the master in AT mode.\n", req.Port)
	fmt.Fprintln(p.out, "Press Enter when ready, or type the master's port if it changed.")

	line, err := p.read(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return req.Port, nil
	}
	return line, nil
}

// Select lists the inquiry results and reads the user's choice.
func (p *Prompter) Select(ctx context.Context, found []at.Address) (at.Address, error) {
	fmt.Fprintln(p.out, "\nDevices found:")
	for i, a := range found {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, a)
	}
	fmt.Fprintf(p.out, "Select the slave [1-%d], or press Enter to abort.\n", len(found))

	for {
		line, err := p.read(ctx)
		if err != nil {
			return at.Address{}, err
		}
		if line == "" {
			return at.Address{}, pairing.ErrNoSelection
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(found) {
			return found[n-1], nil
		}
		if a, ok := at.ParseAddress(line); ok {
			return a, nil
		}
		fmt.Fprintf(p.out, "Invalid choice %q.\n", line)
	}
}

var (
	_ pairing.Swapper  = (*Prompter)(nil)
	_ pairing.Selector = (*Prompter)(nil)
)
