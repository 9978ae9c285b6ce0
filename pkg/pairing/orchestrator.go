package pairing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/configurator"
	"github.com/hclink/hclink-go/pkg/detect"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/serial"
)

// placeholder stands in for an unknown address in dry-run previews.
var placeholder = at.Address{NAP: "XXXX", UAP: "XX", LAP: "XXXXXX"}

// Orchestrator runs pairing sessions. Runs share no mutable state apart
// from the cache store, so one Orchestrator may serve sequential runs.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates an Orchestrator with deps.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	deps.Capture = atlog.OrNoop(deps.Capture)
	return &Orchestrator{deps: deps}
}

// run holds the state of one Run call.
type run struct {
	deps    Deps
	cfg     Config
	s       *Session
	logger  *slog.Logger
	options configurator.Options
}

// Run executes one pairing run. Partial failures are reported in the
// returned Session, never as a panic or error.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      cfg.Mode,
		StartedAt: time.Now(),
	}
	r := &run{
		deps:   o.deps,
		cfg:    cfg,
		s:      s,
		logger: o.deps.Logger.With("session", s.ID),
	}
	r.enter(PhaseInit, "")

	if err := r.cfg.normalize(); err != nil {
		return r.fail(err)
	}
	s.Mode = r.cfg.Mode
	s.SlavePort = r.cfg.SlavePort
	s.MasterPort = r.cfg.MasterPort

	if r.cfg.DryRun {
		return r.dryRun()
	}
	if o.deps.Dialer == nil {
		return r.fail(fmt.Errorf("%w: no dialer", ErrInvalidConfig))
	}
	if r.deps.Detector == nil {
		r.deps.Detector = detect.New(o.deps.Dialer, detect.Config{
			RetryDelay: r.cfg.RetryDelay,
			PortWait:   r.cfg.PortWait,
			Logger:     r.logger,
			Capture:    o.deps.Capture,
			RunID:      s.ID,
		})
	}
	if r.cfg.Mode == ModeOne && o.deps.Swapper == nil {
		return r.fail(fmt.Errorf("%w: mode one needs a swapper", ErrInvalidConfig))
	}

	r.options = configurator.Options{
		Logger:         r.logger,
		Capture:        o.deps.Capture,
		RunID:          s.ID,
		RetryDelay:     r.cfg.RetryDelay,
		CommandTimeout: r.cfg.CommandTimeout,
	}

	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) *Session {
	s := r.s

	r.enter(PhaseSlave, s.SlavePort)
	if err := r.slavePhase(ctx); err != nil {
		return r.fail(err)
	}

	r.enter(PhaseAddressResolution, "")
	if err := r.resolveAddress(ctx); err != nil {
		return r.fail(err)
	}

	if r.cfg.Mode == ModeOne {
		r.enter(PhaseSwapPrompt, s.Address.String())
		if err := r.swap(ctx); err != nil {
			return r.fail(err)
		}
	}

	return r.masterPhases(ctx)
}

// slavePhase detects and configures the slave and reads back its address.
func (r *run) slavePhase(ctx context.Context) error {
	port := r.s.SlavePort
	desired := configurator.Facts{
		Name: r.cfg.NameSlave,
		Pin:  r.cfg.Pin,
		Baud: r.cfg.Baud,
		Role: dialect.RoleSlave,
	}
	toggles := configurator.Toggles{
		Name:    desired.Name != "" && !r.cfg.Skip.Has(StepName),
		Pin:     !r.cfg.Skip.Has(StepPin),
		Baud:    true,
		Role:    true,
		Address: !r.cfg.Skip.Has(StepAddr),
		Extra:   r.cfg.ExtraSlave,
	}

	d, det, err := r.detect(ctx, port, r.cfg.SlaveModule)
	if err != nil {
		return err
	}
	plan, err := configurator.BuildPlan(d, desired, toggles)
	if err != nil {
		return err
	}

	link, err := r.deps.Dialer.Dial(port, det.Profile)
	if err != nil {
		return err
	}
	defer link.Close()
	sess := r.newSession(port, "slave", link, det.Profile)

	if md, ok := d.(dialect.MasterDialect); ok && !r.cfg.Skip.Has(StepOrgl) {
		// Factory reset first so stale pairings and CMODE do not leak into
		// the new configuration.
		r.optional(ctx, sess, PhaseSlave, "slave", md.RestoreDefaults())
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	report, err := configurator.Execute(ctx, sess, plan, configurator.Facts{})
	r.record(PhaseSlave, "slave", port, report.Transcript)
	r.s.Warnings = append(r.s.Warnings, prefix("slave", report.Warnings)...)
	r.s.SlaveFacts = report.Facts
	if err != nil {
		return fmt.Errorf("slave configuration: %w", err)
	}
	r.logger.Info("slave configured", "port", port, "facts", report.Facts.String())
	return nil
}

// resolveAddress picks the bind target.
func (r *run) resolveAddress(ctx context.Context) error {
	s := r.s
	var (
		addr   at.Address
		source AddressSource
	)

	switch {
	case s.SlaveFacts.Address != nil:
		addr, source = *s.SlaveFacts.Address, AddressFromADDR
	case r.cfg.TargetAddress != "":
		addr, _ = at.ParseAddress(r.cfg.TargetAddress)
		source = AddressSupplied
	case r.cfg.Mode == ModeTwo && r.deps.Selector != nil:
		found, results, err := r.scanner().Scan(ctx, s.MasterPort)
		r.record(PhaseAddressResolution, "master", s.MasterPort, results)
		if err != nil {
			return fmt.Errorf("%w: inquiry failed: %w", configurator.ErrMissingInput, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: inquiry found no devices", configurator.ErrMissingInput)
		}
		picked, err := r.deps.Selector.Select(ctx, found)
		if err != nil || picked.IsZero() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: no inquiry result selected", configurator.ErrMissingInput)
		}
		addr, source = picked, AddressInquiry
	case r.cfg.Mode == ModeOne && r.deps.Cache != nil:
		e, err := r.deps.Cache.Get(r.cfg.CacheKey)
		if err != nil {
			r.warn(fmt.Sprintf("cache read failed: %v", err))
		}
		if e != nil {
			if a, ok := at.ParseAddress(e.Address); ok {
				addr, source = a, AddressCache
			}
		}
	}

	if source == AddressNone {
		return fmt.Errorf("%w: slave address unknown; supply one or run an inquiry", configurator.ErrMissingInput)
	}

	s.Address = &addr
	s.AddressSource = source
	r.logger.Info("address resolved", "address", addr.String(), "source", string(source))

	if source != AddressCache {
		r.persist(addr)
	}
	return nil
}

func (r *run) scanner() Scanner {
	if r.deps.Scanner != nil {
		return r.deps.Scanner
	}
	opts := r.options
	opts.Role = "master"
	return &InquiryScanner{
		Dialer:   r.deps.Dialer,
		Detector: r.deps.Detector,
		Duration: r.cfg.InquiryTimeout,
		Options:  opts,
	}
}

// persist writes the address to the cache. A failure is a warning.
func (r *run) persist(addr at.Address) {
	if r.deps.Cache == nil {
		return
	}
	if err := r.deps.Cache.Put(r.cfg.CacheKey, addr.String()); err != nil {
		r.warn(fmt.Sprintf("cache write failed, continuing without persistence: %v", err))
	}
}

// swap waits for the module swap on the shared port.
func (r *run) swap(ctx context.Context) error {
	s := r.s
	r.logger.Info("waiting for module swap", "port", s.SlavePort)
	port, err := r.deps.Swapper.AwaitSwap(ctx, SwapRequest{
		SessionID: s.ID,
		Port:      s.SlavePort,
		Address:   *s.Address,
	})
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	if port != "" {
		s.MasterPort = port
	}
	return nil
}

// masterPhases configures the master and binds, pairs and links it.
func (r *run) masterPhases(ctx context.Context) *Session {
	s := r.s
	port := s.MasterPort
	addr := *s.Address

	r.enter(PhaseMaster, port)
	d, det, err := r.detect(ctx, port, r.cfg.MasterModule)
	if err != nil {
		return r.fail(err)
	}
	md, err := dialect.AsMaster(d)
	if err != nil {
		return r.fail(err)
	}

	desired := configurator.Facts{
		Name: r.cfg.NameMaster,
		Pin:  r.cfg.Pin,
		Baud: r.cfg.Baud,
		Role: dialect.RoleMaster,
	}
	plan, err := configurator.BuildPlan(md, desired, configurator.Toggles{
		Name:  desired.Name != "" && !r.cfg.Skip.Has(StepName),
		Pin:   !r.cfg.Skip.Has(StepPin),
		Baud:  true,
		Role:  true,
		Extra: r.cfg.ExtraMaster,
	})
	if err != nil {
		return r.fail(err)
	}

	link, err := r.deps.Dialer.Dial(port, det.Profile)
	if err != nil {
		return r.fail(err)
	}
	defer link.Close()
	sess := r.newSession(port, "master", link, det.Profile)

	report, err := configurator.Execute(ctx, sess, plan, configurator.Facts{})
	r.record(PhaseMaster, "master", port, report.Transcript)
	r.s.Warnings = append(r.s.Warnings, prefix("master", report.Warnings)...)
	s.MasterFacts = report.Facts
	if err != nil {
		return r.fail(fmt.Errorf("master configuration: %w", err))
	}

	if err := r.critical(ctx, sess, PhaseMaster, md.ConnectMode(false)); err != nil {
		return r.fail(fmt.Errorf("master configuration: %w", err))
	}
	if !r.cfg.Skip.Has(StepRmaad) {
		r.optional(ctx, sess, PhaseMaster, "master", md.ClearPaired())
	}
	if !r.cfg.Skip.Has(StepInit) {
		r.optional(ctx, sess, PhaseMaster, "master", md.Init())
	}
	if ctx.Err() != nil {
		return r.fail(ctx.Err())
	}

	r.enter(PhaseBind, addr.String())
	s.Bind = r.step(ctx, sess, PhaseBind, md.Bind(addr), ErrBindFailed)
	if !s.Bind.OK {
		return r.fail(s.Bind.Err)
	}

	r.enter(PhasePair, addr.String())
	if r.cfg.Skip.Has(StepPair) {
		s.Pair = StepResult{Skipped: true}
	} else {
		s.Pair = r.step(ctx, sess, PhasePair, md.Pair(addr, r.cfg.PairTimeout), ErrPairFailed)
		if ctx.Err() != nil {
			return r.fail(ctx.Err())
		}
	}

	r.enter(PhaseLink, addr.String())
	if r.cfg.Skip.Has(StepLink) {
		s.Link = StepResult{Skipped: true}
	} else {
		s.Link = r.step(ctx, sess, PhaseLink, md.Link(addr), ErrLinkFailed)
		if ctx.Err() != nil {
			return r.fail(ctx.Err())
		}
	}

	if !r.cfg.Skip.Has(StepReset) {
		if cmd, ok := md.Reset(); ok {
			res := r.optional(ctx, sess, PhaseDone, "master", cmd)
			s.MasterFacts.ResetIssued = res.Attempts > 0
		}
	}

	s.Status = OverallStatus(s.Bind.OK, s.Pair.OK, s.Link.OK)
	r.enter(PhaseDone, string(s.Status))
	s.FinishedAt = time.Now()
	r.logger.Info("pairing finished", "status", string(s.Status), "address", addr.String())
	return s
}

// detect returns the dialect for the module on port. A forced module
// overrides the detected one.
func (r *run) detect(ctx context.Context, port string, forced dialect.Module) (dialect.Dialect, detect.Detection, error) {
	det, err := r.deps.Detector.Detect(ctx, port)
	if err != nil {
		return nil, det, err
	}
	module := det.Module
	if forced != dialect.Unknown {
		if forced != module {
			r.warn(fmt.Sprintf("%s: using %s although detection suggested %s", port, forced, module))
		}
		module = forced
	}
	r.logger.Info("module detected", "port", port, "module", module.String(), "profile", det.Profile.String())
	return dialect.ForModule(module), det, nil
}

func (r *run) newSession(port, role string, link serial.Link, p serial.Profile) *at.Session {
	o := r.options
	o.Role = role
	return o.NewSession(port, link, p)
}

// step sends a bind, pair or link command.
func (r *run) step(ctx context.Context, sess *at.Session, phase Phase, cmd at.Command, sentinel error) StepResult {
	res, err := sess.Send(ctx, cmd)
	r.record(phase, "master", sess.Port(), []at.Result{res})
	sr := StepResult{Attempted: true, OK: err == nil, Result: res}
	if err != nil {
		sr.Err = fmt.Errorf("%w: %w", sentinel, err)
		if phase != PhaseBind {
			r.warn(sr.Err.Error())
		}
	}
	return sr
}

// critical sends cmd and returns its error.
func (r *run) critical(ctx context.Context, sess *at.Session, phase Phase, cmd at.Command) error {
	res, err := sess.Send(ctx, cmd)
	r.record(phase, "master", sess.Port(), []at.Result{res})
	if err != nil {
		return fmt.Errorf("step %s: %w", cmd.ID, err)
	}
	return nil
}

// optional sends cmd and turns a rejection or timeout into a warning.
func (r *run) optional(ctx context.Context, sess *at.Session, phase Phase, role string, cmd at.Command) at.Result {
	res, err := sess.Send(ctx, cmd)
	r.record(phase, role, sess.Port(), []at.Result{res})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.warn(fmt.Sprintf("%s %s skipped: %v", role, cmd.ID, err))
	}
	return res
}

func (r *run) record(phase Phase, role, port string, results []at.Result) {
	for _, res := range results {
		r.s.Transcript = append(r.s.Transcript, Entry{Phase: phase, Role: role, Port: port, Result: res})
	}
}

func (r *run) warn(msg string) {
	r.s.Warnings = append(r.s.Warnings, msg)
	r.logger.Warn(msg)
}

// enter moves the run to phase p and reports the change.
func (r *run) enter(p Phase, reason string) {
	old := ""
	if len(r.s.Phases) > 0 {
		old = r.s.Phase.String()
	}
	r.s.Phase = p
	r.s.Phases = append(r.s.Phases, p)

	r.deps.Capture.Log(atlog.Event{
		Timestamp: time.Now(),
		RunID:     r.s.ID,
		Category:  atlog.CategoryState,
		StateChange: &atlog.StateChangeEvent{
			OldState: old,
			NewState: p.String(),
			Reason:   reason,
		},
	})
	r.logger.Debug("pairing phase", "phase", p.String(), "reason", reason)
}

func (r *run) fail(err error) *Session {
	r.s.Err = err
	r.s.Status = StatusFailed
	r.enter(PhaseFailed, err.Error())
	r.s.FinishedAt = time.Now()

	r.deps.Capture.Log(atlog.Event{
		Timestamp: time.Now(),
		RunID:     r.s.ID,
		Category:  atlog.CategoryError,
		Error:     &atlog.ErrorEventData{Message: err.Error(), Context: "pairing"},
	})
	r.logger.Error("pairing failed", "error", err)
	return r.s
}

// dryRun renders both plans without touching any port.
func (r *run) dryRun() *Session {
	s := r.s
	preview := &Preview{}

	slave := dialect.ForModule(r.cfg.SlaveModule)
	plan, err := configurator.BuildPlan(slave, configurator.Facts{
		Name: r.cfg.NameSlave, Pin: r.cfg.Pin, Baud: r.cfg.Baud, Role: dialect.RoleSlave,
	}, configurator.Toggles{
		Name:    r.cfg.NameSlave != "" && !r.cfg.Skip.Has(StepName),
		Pin:     !r.cfg.Skip.Has(StepPin),
		Baud:    true,
		Role:    true,
		Address: !r.cfg.Skip.Has(StepAddr),
		Extra:   r.cfg.ExtraSlave,
	})
	if err != nil {
		return r.fail(err)
	}
	if md, ok := slave.(dialect.MasterDialect); ok && !r.cfg.Skip.Has(StepOrgl) {
		preview.Slave = append(preview.Slave, md.RestoreDefaults().Text)
	}
	preview.Slave = append(preview.Slave, configurator.Render(plan)...)

	md, err := dialect.AsMaster(dialect.ForModule(r.cfg.MasterModule))
	if err != nil {
		return r.fail(err)
	}
	plan, err = configurator.BuildPlan(md, configurator.Facts{
		Name: r.cfg.NameMaster, Pin: r.cfg.Pin, Baud: r.cfg.Baud, Role: dialect.RoleMaster,
	}, configurator.Toggles{
		Name:  r.cfg.NameMaster != "" && !r.cfg.Skip.Has(StepName),
		Pin:   !r.cfg.Skip.Has(StepPin),
		Baud:  true,
		Role:  true,
		Extra: r.cfg.ExtraMaster,
	})
	if err != nil {
		return r.fail(err)
	}

	addr := placeholder
	if a, ok := at.ParseAddress(r.cfg.TargetAddress); ok {
		addr = a
		s.Address = &a
		s.AddressSource = AddressSupplied
	}
	preview.Master = append(preview.Master, configurator.Render(plan)...)
	preview.Master = append(preview.Master, md.ConnectMode(false).Text)
	if !r.cfg.Skip.Has(StepRmaad) {
		preview.Master = append(preview.Master, md.ClearPaired().Text)
	}
	if !r.cfg.Skip.Has(StepInit) {
		preview.Master = append(preview.Master, md.Init().Text)
	}
	preview.Master = append(preview.Master, md.Bind(addr).Text)
	if !r.cfg.Skip.Has(StepPair) {
		preview.Master = append(preview.Master, md.Pair(addr, r.cfg.PairTimeout).Text)
	}
	if !r.cfg.Skip.Has(StepLink) {
		preview.Master = append(preview.Master, md.Link(addr).Text)
	}
	if cmd, ok := md.Reset(); ok && !r.cfg.Skip.Has(StepReset) {
		preview.Master = append(preview.Master, cmd.Text)
	}

	s.Preview = preview
	s.Status = StatusPlanned
	r.enter(PhaseDone, "dry run")
	s.FinishedAt = time.Now()
	return s
}

func prefix(role string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, role+": "+m)
	}
	return out
}
