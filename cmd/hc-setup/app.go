package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/config"
	"github.com/hclink/hclink-go/pkg/detect"
	"github.com/hclink/hclink-go/pkg/pairing"
	"github.com/hclink/hclink-go/pkg/serial"
)

// errPairIncomplete marks a pairing run that ended bound or failed.
var errPairIncomplete = errors.New("pairing incomplete")

// commonFlags are accepted by every command.
type commonFlags struct {
	configFile string
	capture    string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&c.capture, "capture", "", "Write AT traffic to this .atlog file")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config or info)")
}

// app carries the collaborators shared by the commands.
type app struct {
	settings *config.Config
	dialer   serial.Dialer
	logger   *slog.Logger
	capture  atlog.Logger
	out      io.Writer

	closers []io.Closer
}

// newApp loads the configuration and opens the capture file.
func newApp(c commonFlags, out io.Writer) (*app, error) {
	settings, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	if c.capture != "" {
		settings.Capture = c.capture
	}
	if c.logLevel != "" {
		settings.LogLevel = c.logLevel
	}

	a := &app{
		settings: settings,
		dialer:   serial.DefaultDialer,
		logger:   setupLogging(settings.LogLevel, os.Stderr),
		out:      out,
	}

	var file atlog.Logger
	if settings.Capture != "" {
		fl, err := atlog.NewFileLogger(settings.Capture)
		if err != nil {
			return nil, fmt.Errorf("failed to open capture file: %w", err)
		}
		a.closers = append(a.closers, fl)
		file = fl
		a.logger.Info("capturing AT traffic", "file", settings.Capture)
	}
	a.capture = atlog.NewMultiLogger(file, atlog.NewSlogAdapter(a.logger))
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func (a *app) detector(runID string) *detect.Detector {
	return detect.New(a.dialer, detect.Config{
		ProbeTimeout: a.settings.Timeouts.Probe,
		RetryDelay:   a.settings.Timeouts.RetryDelay,
		PortWait:     a.settings.Timeouts.PortWait,
		Logger:       a.logger,
		Capture:      a.capture,
		RunID:        runID,
	})
}

// setupLogging configures the standard logger like the other tools and
// returns a slog.Logger at level.
func setupLogging(level string, w io.Writer) *slog.Logger {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		l = slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		l = slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// exitCode maps errors to process exit codes: 2 for usage and
// configuration problems, 3 for a pairing that only bound, 1 otherwise.
func exitCode(err error) int {
	var le *config.LoadError
	switch {
	case errors.As(err, &le), errors.Is(err, pairing.ErrInvalidConfig), errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errPairIncomplete):
		return 3
	default:
		return 1
	}
}
