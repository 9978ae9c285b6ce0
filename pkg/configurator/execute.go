package configurator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/serial"
)

// Report is the outcome of Execute.
type Report struct {
	// Transcript holds one result per attempted command, in order.
	Transcript []at.Result

	// Facts are the input facts updated with confirmed settings and
	// response-derived data.
	Facts Facts

	// Warnings describe skipped non-critical failures.
	Warnings []string
}

// Execute runs plan through sess starting from facts.
//
// It stops at the first critical failure or link error and returns the
// partial report with the error. Non-critical failures become warnings.
func Execute(ctx context.Context, sess *at.Session, plan Plan, facts Facts) (Report, error) {
	facts.Module = plan.module
	report := Report{Facts: facts}

	for _, cmd := range plan.commands {
		res, err := sess.Send(ctx, cmd)
		report.Transcript = append(report.Transcript, res)

		if cmd.ID == "addr" {
			if a, ok := at.ParseAddress(res.Raw); ok {
				report.Facts.Address = &a
			}
		}
		if cmd.ID == "reset" && res.Attempts > 0 {
			report.Facts.ResetIssued = true
		}

		if err != nil {
			if !errors.Is(err, at.ErrCommandFailed) {
				return report, fmt.Errorf("step %s: %w", cmd.ID, err)
			}
			if cmd.Critical {
				return report, fmt.Errorf("step %s: %w", cmd.ID, err)
			}
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s skipped: %v", cmd.ID, err))
			continue
		}

		apply(&report.Facts, plan.desired, cmd.ID)
	}

	return report, nil
}

// apply records a confirmed step in facts.
func apply(facts *Facts, desired Facts, id string) {
	switch id {
	case "name":
		facts.Name = desired.Name
	case "pin":
		facts.Pin = desired.Pin
	case "uart":
		facts.Baud = desired.Baud
	case "role":
		facts.Role = desired.Role
	}
}

// Options configure the session ExecutePlan opens.
type Options struct {
	Logger     *slog.Logger
	Capture    atlog.Logger
	RunID      string
	Role       string
	RetryDelay time.Duration

	// CommandTimeout applies to commands that carry no timeout of their own.
	CommandTimeout time.Duration
}

// NewSession creates an at.Session configured by o.
func (o Options) NewSession(port string, link serial.Link, profile serial.Profile) *at.Session {
	sess := at.NewSession(port, link, profile)
	sess.SetLogger(o.Logger)
	sess.SetCapture(o.Capture, o.RunID, o.Role)
	if o.RetryDelay != 0 {
		sess.SetRetryDelay(o.RetryDelay)
	}
	if o.CommandTimeout > 0 {
		sess.SetDefaultTimeout(o.CommandTimeout)
	}
	return sess
}

// ExecutePlan opens port with profile, executes plan and closes the link.
func ExecutePlan(ctx context.Context, dialer serial.Dialer, port string, profile serial.Profile, plan Plan, facts Facts, opts Options) (Report, error) {
	link, err := dialer.Dial(port, profile)
	if err != nil {
		return Report{Facts: facts}, err
	}
	defer link.Close()

	return Execute(ctx, opts.NewSession(port, link, profile), plan, facts)
}
