package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/hclink/hclink-go/pkg/configurator"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/paircache"
	"github.com/hclink/hclink-go/pkg/pairing"
)

// errUsage marks a command line that cannot be run.
var errUsage = errors.New("usage")

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "hc-setup %s - %s\n\nUsage:\n  hc-setup %s [flags]\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runDetect(ctx context.Context, args []string) error {
	var common commonFlags
	fs := newFlagSet("detect", "Find the AT profile and module family on a port")
	common.register(fs)
	port := fs.String("port", "", "Serial port (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *port == "" {
		fs.Usage()
		return fmt.Errorf("%w: -port is required", errUsage)
	}

	a, err := newApp(common, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.detect(ctx, *port)
}

func (a *app) detect(ctx context.Context, port string) error {
	det, err := a.detector(uuid.NewString()).Detect(ctx, port)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Port:     %s\n", det.Port)
	fmt.Fprintf(a.out, "Profile:  %s\n", det.Profile)
	fmt.Fprintf(a.out, "Module:   %s\n", det.Module)
	fmt.Fprintf(a.out, "Probes:   %d\n", det.Attempts)
	return nil
}

// setupFlags are shared by plan and setup.
type setupFlags struct {
	module  string
	role    string
	name    string
	pin     string
	baud    int
	noPin   bool
	addr    bool
	reset   bool
	extra   stringList
	require bool
}

func (s *setupFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.module, "module", "auto", "Module family: hc05, hc06 or auto")
	fs.StringVar(&s.role, "role", "", "Role to set: slave or master (HC-05 only)")
	fs.StringVar(&s.name, "name", "", "Bluetooth name (max 32 printable ASCII characters)")
	fs.StringVar(&s.pin, "pin", "", "4-digit PIN (default from config)")
	fs.IntVar(&s.baud, "baud", 0, "Data-mode baud rate (default from config)")
	fs.BoolVar(&s.noPin, "no-pin", false, "Leave the PIN unchanged")
	fs.BoolVar(&s.addr, "addr", false, "Read back the module address")
	fs.BoolVar(&s.require, "require-addr", false, "Fail when the address cannot be read")
	fs.BoolVar(&s.reset, "reset", false, "Reset the module after configuring it")
	fs.Var(&s.extra, "extra", "Extra AT command to send afterwards (repeatable)")
}

// build returns the desired facts and toggles with config defaults applied.
func (s *setupFlags) build(a *app) (configurator.Facts, configurator.Toggles, error) {
	desired := configurator.Facts{
		Name: s.name,
		Pin:  s.pin,
		Baud: s.baud,
	}
	if desired.Pin == "" {
		desired.Pin = a.settings.Defaults.Pin
	}
	if desired.Baud == 0 {
		desired.Baud = a.settings.Defaults.Baud
	}
	if s.role != "" {
		r, err := dialect.ParseRole(s.role)
		if err != nil {
			return desired, configurator.Toggles{}, fmt.Errorf("%w: %v", errUsage, err)
		}
		desired.Role = r
	}

	t := configurator.Toggles{
		Name:           s.name != "",
		Pin:            !s.noPin,
		Baud:           true,
		Role:           desired.Role != dialect.RoleUnset,
		Address:        s.addr || s.require,
		RequireAddress: s.require,
		Reset:          s.reset,
		Extra:          s.extra,
	}
	return desired, t, nil
}

func runPlan(args []string) error {
	var common commonFlags
	var sf setupFlags
	fs := newFlagSet("plan", "Print the commands a setup would send, without a port")
	common.register(fs)
	sf.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	a, err := newApp(common, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.plan(sf)
}

func (a *app) plan(sf setupFlags) error {
	m, err := dialect.ParseModule(sf.module)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	desired, toggles, err := sf.build(a)
	if err != nil {
		return err
	}
	plan, err := configurator.BuildPlan(dialect.ForModule(m), desired, toggles)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Plan for %s (%d commands):\n", plan.Module(), plan.Len())
	for i, line := range configurator.Describe(plan) {
		fmt.Fprintf(a.out, "  %2d. %s\n", i+1, line)
	}
	return nil
}

func runSetup(ctx context.Context, args []string) error {
	var common commonFlags
	var sf setupFlags
	fs := newFlagSet("setup", "Configure one module")
	common.register(fs)
	sf.register(fs)
	port := fs.String("port", "", "Serial port (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *port == "" {
		fs.Usage()
		return fmt.Errorf("%w: -port is required", errUsage)
	}

	a, err := newApp(common, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.setup(ctx, *port, sf)
}

func (a *app) setup(ctx context.Context, port string, sf setupFlags) error {
	forced, err := dialect.ParseModule(sf.module)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	desired, toggles, err := sf.build(a)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	det, err := a.detector(runID).Detect(ctx, port)
	if err != nil {
		return err
	}
	m := det.Module
	if forced != dialect.Unknown {
		m = forced
	}

	plan, err := configurator.BuildPlan(dialect.ForModule(m), desired, toggles)
	if err != nil {
		return err
	}
	report, err := configurator.ExecutePlan(ctx, a.dialer, port, det.Profile, plan, configurator.Facts{}, configurator.Options{
		Logger:         a.logger,
		Capture:        a.capture,
		RunID:          runID,
		RetryDelay:     a.settings.Timeouts.RetryDelay,
		CommandTimeout: a.settings.Timeouts.Command,
	})
	printReport(a.out, det.Profile.String(), report)
	return err
}

func runPair(ctx context.Context, args []string) error {
	var common commonFlags
	fs := newFlagSet("pair", "Configure a slave and a master and connect them")
	common.register(fs)

	mode := fs.String("mode", "", "Pairing mode: one (single port, swap) or two (default from config)")
	port := fs.String("port", "", "Shared port in mode one")
	slave := fs.String("slave", "", "Slave port in mode two")
	master := fs.String("master", "", "Master port in mode two")
	pin := fs.String("pin", "", "4-digit PIN for both modules (default from config)")
	baud := fs.Int("baud", 0, "Data-mode baud rate for both modules (default from config)")
	nameSlave := fs.String("name-slave", "", "Slave name")
	nameMaster := fs.String("name-master", "", "Master name")
	target := fs.String("target", "", "Slave address to bind when the slave cannot report it")
	inquiry := fs.Bool("inquiry", false, "In mode two, scan for the slave when its address is unknown")
	dryRun := fs.Bool("dry-run", false, "Print both plans without opening any port")
	slaveModule := fs.String("slave-module", "auto", "Slave module family (auto, hc05, hc06)")
	masterModule := fs.String("master-module", "auto", "Master module family (auto, hc05)")
	var skip, extraSlave, extraMaster stringList
	fs.Var(&skip, "skip", "Step to skip: name, pin, addr, orgl, rmaad, init, pair, link, reset (repeatable, comma-separated)")
	fs.Var(&extraSlave, "extra-slave", "Extra AT command for the slave (repeatable)")
	fs.Var(&extraMaster, "extra-master", "Extra AT command for the master (repeatable)")

	if err := parse(fs, args); err != nil {
		return err
	}

	a, err := newApp(common, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := pairing.ConfigFromSettings(a.settings)
	if err != nil {
		return err
	}
	if *mode != "" {
		if cfg.Mode, err = pairing.ParseMode(*mode); err != nil {
			return fmt.Errorf("%w: %v", pairing.ErrInvalidConfig, err)
		}
	}
	if len(skip) > 0 {
		if cfg.Skip, err = pairing.ParseSteps(skip); err != nil {
			return err
		}
	}
	if *pin != "" {
		cfg.Pin = *pin
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if cfg.SlaveModule, err = dialect.ParseModule(*slaveModule); err != nil {
		return fmt.Errorf("%w: %v", pairing.ErrInvalidConfig, err)
	}
	if cfg.MasterModule, err = dialect.ParseModule(*masterModule); err != nil {
		return fmt.Errorf("%w: %v", pairing.ErrInvalidConfig, err)
	}
	cfg.Port, cfg.SlavePort, cfg.MasterPort = *port, *slave, *master
	cfg.NameSlave, cfg.NameMaster = *nameSlave, *nameMaster
	cfg.TargetAddress = *target
	cfg.DryRun = *dryRun
	cfg.ExtraSlave = append(cfg.ExtraSlave, extraSlave...)
	cfg.ExtraMaster = append(cfg.ExtraMaster, extraMaster...)

	var prompter *Prompter
	if !cfg.DryRun && (cfg.Mode == pairing.ModeOne || *inquiry) {
		rl, err := newReadline()
		if err != nil {
			return err
		}
		defer rl.Close()
		prompter = NewPrompter(rl, rl.Stdout())
	}
	return a.pair(ctx, cfg, prompter, *inquiry)
}

// pair runs the orchestrator. prompter may be nil for runs that need no
// user interaction.
func (a *app) pair(ctx context.Context, cfg pairing.Config, prompter *Prompter, inquiry bool) error {
	deps := pairing.Deps{
		Dialer:  a.dialer,
		Logger:  a.logger,
		Capture: a.capture,
	}
	if !cfg.DryRun {
		cache, err := paircache.Open(a.settings.Cache.Backend, a.settings.Cache.Path)
		if err != nil {
			a.logger.Warn("address cache unavailable", "error", err)
		} else {
			defer cache.Close()
			deps.Cache = cache
		}
	}
	if prompter != nil {
		deps.Swapper = prompter
		if inquiry {
			deps.Selector = prompter
		}
	}

	s := pairing.NewOrchestrator(deps).Run(ctx, cfg)
	printSession(a.out, s)

	switch s.Status {
	case pairing.StatusLinked, pairing.StatusPlanned:
		return nil
	case pairing.StatusBound:
		return fmt.Errorf("%w: bound to %s but not linked", errPairIncomplete, s.Address)
	default:
		return s.Err
	}
}

func runCache(args []string) error {
	var common commonFlags
	fs := newFlagSet("cache", "List or look up cached slave addresses")
	common.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	a, err := newApp(common, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.cache(fs.Args())
}

// cache handles "list" (default) and "get <key|port>".
func (a *app) cache(args []string) error {
	store, err := paircache.Open(a.settings.Cache.Backend, a.settings.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 || args[0] == "list" {
		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "No cached addresses.")
			return nil
		}
		for _, e := range entries {
			printEntry(a.out, e)
		}
		return nil
	}

	if args[0] != "get" || len(args) != 2 {
		return fmt.Errorf("%w: cache [list | get <key|port>]", errUsage)
	}
	key := args[1]
	if !strings.Contains(key, "@") {
		key = paircache.KeyForPort(key)
	}
	e, err := store.Get(key)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("no cached address for %s", key)
	}
	printEntry(a.out, *e)
	return nil
}

func printEntry(w io.Writer, e paircache.Entry) {
	fmt.Fprintf(w, "%-28s %s  (%s)\n", e.Key, e.Address, e.Timestamp.Local().Format("2006-01-02 15:04:05"))
}
