// Package detect finds the serial profile a module's AT mode answers on.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/serial"
)

// ErrNoProfileDetected is returned when no candidate profile acknowledged
// the probe.
var ErrNoProfileDetected = errors.New("no profile detected")

// Defaults for Config.
const (
	DefaultProbeTimeout  = 2 * time.Second
	DefaultProbeAttempts = 2
)

// Config configures a Detector.
type Config struct {
	// Candidates are tried in order. Empty means serial.DetectionProfiles.
	Candidates []serial.Profile

	// ProbeTimeout bounds each probe attempt (default: 2s).
	ProbeTimeout time.Duration

	// ProbeAttempts is the number of probes per candidate (default: 2).
	ProbeAttempts int

	// RetryDelay is the pause between probes. Zero uses at.DefaultRetryDelay,
	// negative disables the pause.
	RetryDelay time.Duration

	// PortWait keeps retrying a missing port with backoff for this long.
	// Zero fails at once.
	PortWait time.Duration

	// SkipModuleQuery disables the AT+ROLE? family check.
	SkipModuleQuery bool

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// Capture receives every probe exchange.
	Capture atlog.Logger

	// RunID correlates capture events.
	RunID string
}

// Detection is the result of a successful Detect.
type Detection struct {
	Port         string
	Profile      serial.Profile
	Module       dialect.Module
	RoleResponse string

	// Attempts counts probe attempts across all candidates.
	Attempts int
}

// Detector probes candidate profiles on a port.
type Detector struct {
	dialer serial.Dialer
	config Config
}

// New creates a Detector that opens links through dialer.
func New(dialer serial.Dialer, config Config) *Detector {
	if len(config.Candidates) == 0 {
		config.Candidates = serial.DetectionProfiles
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = DefaultProbeTimeout
	}
	if config.ProbeAttempts < 1 {
		config.ProbeAttempts = DefaultProbeAttempts
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = at.DefaultRetryDelay
	}
	return &Detector{dialer: dialer, config: config}
}

// Detect returns the first candidate on which the module acknowledges "AT".
//
// Every link is closed before the next candidate is tried. A port error
// (missing, busy, denied) ends detection at once; it is not a profile miss.
func (d *Detector) Detect(ctx context.Context, port string) (Detection, error) {
	result := Detection{Port: port}

	for _, p := range d.config.Candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		d.debug("probing", "port", port, "profile", p.String())

		found, err := d.probe(ctx, port, p, &result)
		if err != nil {
			return result, err
		}
		if found {
			d.debug("profile detected", "port", port, "profile", p.String(), "module", result.Module.String())
			return result, nil
		}
	}

	return result, fmt.Errorf("%w on %s after %d probe(s)", ErrNoProfileDetected, port, result.Attempts)
}

func (d *Detector) probe(ctx context.Context, port string, p serial.Profile, result *Detection) (bool, error) {
	link, err := d.dial(ctx, port, p)
	if err != nil {
		return false, err
	}
	defer link.Close()

	sess := at.NewSession(port, link, p)
	sess.SetLogger(d.config.Logger)
	sess.SetCapture(d.config.Capture, d.config.RunID, "")
	sess.SetRetryDelay(d.config.RetryDelay)

	res, err := sess.Send(ctx, at.Command{
		ID:          "probe",
		Text:        "AT",
		Timeout:     d.config.ProbeTimeout,
		MaxAttempts: d.config.ProbeAttempts,
		RetrySafe:   true,
	})
	result.Attempts += res.Attempts
	if err != nil {
		if errors.Is(err, at.ErrCommandFailed) {
			return false, nil
		}
		return false, err
	}

	result.Profile = p
	if d.config.SkipModuleQuery {
		result.Module = dialect.Unknown
		return true, nil
	}

	// HC-06 has no ROLE command; anything mentioning ROLE is an HC-05.
	role, err := sess.Send(ctx, at.Command{ID: "role?", Text: "AT+ROLE?", Timeout: d.config.ProbeTimeout, MaxAttempts: 1})
	if err != nil && !errors.Is(err, at.ErrCommandFailed) {
		return false, err
	}
	raw := role.Raw
	if raw == at.TimeoutMarker {
		raw = ""
	}
	result.RoleResponse = strings.TrimSpace(raw)
	if strings.Contains(strings.ToUpper(raw), "ROLE") {
		result.Module = dialect.HC05
	} else {
		result.Module = dialect.HC06
	}
	return true, nil
}

func (d *Detector) debug(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, args...)
	}
}
