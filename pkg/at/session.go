package at

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/serial"
)

// DefaultRetryDelay is the pause between two attempts.
const DefaultRetryDelay = 250 * time.Millisecond

// Session sends commands over one link. It is not safe for concurrent use;
// a module accepts one command at a time.
type Session struct {
	port    string
	link    serial.Link
	profile serial.Profile

	retryDelay     time.Duration
	defaultTimeout time.Duration

	logger  *slog.Logger
	capture atlog.Logger
	runID   string
	role    string

	now func() time.Time
}

// NewSession creates a session on an open link. port names the device in
// logs and capture events.
func NewSession(port string, link serial.Link, profile serial.Profile) *Session {
	return &Session{
		port:           port,
		link:           link,
		profile:        profile,
		retryDelay:     DefaultRetryDelay,
		defaultTimeout: DefaultTimeout,
		capture:        atlog.NoopLogger{},
		now:            time.Now,
	}
}

// SetLogger sets the logger for this session.
func (s *Session) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// SetCapture configures protocol capture. Events carry runID and role
// for correlation. Pass nil to disable capture.
func (s *Session) SetCapture(logger atlog.Logger, runID, role string) {
	s.capture = atlog.OrNoop(logger)
	s.runID = runID
	s.role = role
}

// SetRetryDelay sets the pause between attempts. Zero disables it.
func (s *Session) SetRetryDelay(d time.Duration) {
	s.retryDelay = max(d, 0)
}

// SetDefaultTimeout sets the attempt timeout for commands without one.
func (s *Session) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		s.defaultTimeout = d
	}
}

// Port returns the device name.
func (s *Session) Port() string { return s.port }

// Profile returns the profile the link was opened with.
func (s *Session) Profile() serial.Profile { return s.profile }

// Send delivers cmd and waits for its terminal reply.
//
// The returned Result is valid even when err is non-nil and holds every
// attempt made so far. err is nil only for AckOK; a rejection or timeout
// yields a *CommandError, a link failure is returned as is and context
// cancellation returns ctx.Err().
func (s *Session) Send(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd}
	start := s.now()

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	for _, text := range cmd.Texts() {
		for i := 0; i < cmd.attempts(); i++ {
			if res.Attempts > 0 {
				if err := s.pause(ctx); err != nil {
					res.Elapsed = s.now().Sub(start)
					return res, err
				}
			}
			if err := ctx.Err(); err != nil {
				res.Elapsed = s.now().Sub(start)
				return res, err
			}

			ex, err := s.attempt(ctx, cmd.ID, text, res.Attempts+1, timeout)
			res.Attempts++
			res.Exchanges = append(res.Exchanges, ex)
			res.Sent = text
			res.Raw = ex.Response
			res.Outcome = ex.Outcome
			res.Code = ex.Code
			if err != nil {
				res.Elapsed = s.now().Sub(start)
				return res, err
			}

			if s.logger != nil {
				s.logger.Debug("at exchange",
					"port", s.port,
					"cmd", text,
					"attempt", ex.Attempt,
					"outcome", ex.Outcome.String(),
				)
			}

			if ex.Outcome == AckOK {
				res.Elapsed = s.now().Sub(start)
				return res, nil
			}
			if ex.Outcome == AckError && !cmd.RetrySafe {
				break
			}
		}
	}

	res.Elapsed = s.now().Sub(start)
	return res, &CommandError{
		ID:       cmd.ID,
		Text:     res.Sent,
		Outcome:  res.Outcome,
		Code:     res.Code,
		Attempts: res.Attempts,
	}
}

func (s *Session) pause(ctx context.Context) error {
	if s.retryDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// attempt performs one write and collects reply lines until a terminal
// token or the deadline.
func (s *Session) attempt(ctx context.Context, id, text string, n int, timeout time.Duration) (Exchange, error) {
	ex := Exchange{Attempt: n, Sent: text, Outcome: Timeout}
	start := s.now()

	if err := s.link.Flush(); err != nil {
		ex.Outcome = NotSent
		s.logError(id, err, "flush")
		return ex, err
	}

	s.capture.Log(s.event(atlog.DirectionOut, atlog.CategoryCommand, &atlog.ExchangeEvent{
		Step:    id,
		Text:    text,
		Attempt: n,
	}))
	if err := s.link.WriteLine(text); err != nil {
		ex.Outcome = NotSent
		s.logError(id, err, "write")
		return ex, err
	}

	var lines []string
	deadline := start.Add(timeout)
	for {
		remaining := deadline.Sub(s.now())
		if remaining <= 0 || ctx.Err() != nil {
			break
		}
		line, err := s.link.ReadLine(remaining)
		if errors.Is(err, serial.ErrTimeout) {
			break
		}
		if err != nil {
			ex.Response = strings.Join(lines, "\n")
			ex.Elapsed = s.now().Sub(start)
			s.logError(id, err, "read")
			return ex, err
		}
		lines = append(lines, line)
		if outcome, code, terminal := classify(line); terminal {
			ex.Outcome = outcome
			ex.Code = code
			break
		}
	}

	ex.Response = strings.Join(lines, "\n")
	ex.Elapsed = s.now().Sub(start)

	reply := &atlog.ExchangeEvent{
		Step:    id,
		Text:    ex.Response,
		Attempt: n,
		Outcome: ex.Outcome.String(),
		Code:    ex.Code,
		Elapsed: ex.Elapsed,
	}
	if ex.Outcome == Timeout {
		if ex.Response == "" {
			ex.Response = TimeoutMarker
			reply.Text = TimeoutMarker
		}
		s.capture.Log(s.event(atlog.DirectionIn, atlog.CategoryTimeout, reply))
	} else {
		s.capture.Log(s.event(atlog.DirectionIn, atlog.CategoryResponse, reply))
	}

	if err := ctx.Err(); err != nil {
		return ex, err
	}
	return ex, nil
}

func (s *Session) event(dir atlog.Direction, cat atlog.Category, ex *atlog.ExchangeEvent) atlog.Event {
	return atlog.Event{
		Timestamp: s.now(),
		RunID:     s.runID,
		Port:      s.port,
		Direction: dir,
		Category:  cat,
		Role:      s.role,
		Exchange:  ex,
	}
}

func (s *Session) logError(id string, err error, op string) {
	s.capture.Log(atlog.Event{
		Timestamp: s.now(),
		RunID:     s.runID,
		Port:      s.port,
		Category:  atlog.CategoryError,
		Role:      s.role,
		Error: &atlog.ErrorEventData{
			Message: err.Error(),
			Context: op + " " + id,
		},
	})
	if s.logger != nil {
		s.logger.Warn("at link error", "port", s.port, "op", op, "error", err)
	}
}
