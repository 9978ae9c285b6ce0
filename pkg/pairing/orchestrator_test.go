package pairing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hclink/hclink-go/internal/fakemodule"
	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/configurator"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/paircache"
	"github.com/hclink/hclink-go/pkg/serial"
)

const slaveAddr = "98D3:31:FB2211"

// recorder collects capture events.
type recorder struct {
	events []atlog.Event
}

func (r *recorder) Log(e atlog.Event) { r.events = append(r.events, e) }

func (r *recorder) states() []string {
	var out []string
	for _, e := range r.events {
		if e.StateChange != nil {
			out = append(out, e.StateChange.NewState)
		}
	}
	return out
}

func newCache(t *testing.T) paircache.Store {
	t.Helper()
	s := paircache.NewFileStore(filepath.Join(t.TempDir(), "pair_cache.json"))
	t.Cleanup(func() { s.Close() })
	return s
}

func twoPortConfig() Config {
	return Config{
		Mode:       ModeTwo,
		SlavePort:  "COM1",
		MasterPort: "COM2",
		Pin:        "1234",
		Baud:       9600,
		RetryDelay: -1,
	}
}

// swapTo replaces the module on a port when the run asks for the swap.
func swapTo(b *fakemodule.Bench, m *fakemodule.Module) SwapFunc {
	return func(ctx context.Context, req SwapRequest) (string, error) {
		b.Detach(req.Port)
		b.Attach(req.Port, m)
		return "", nil
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		bind, pair, link bool
		want             Status
	}{
		{false, false, false, StatusFailed},
		{false, false, true, StatusFailed},
		{false, true, false, StatusFailed},
		{false, true, true, StatusFailed},
		{true, false, false, StatusBound},
		{true, false, true, StatusBound},
		{true, true, false, StatusBound},
		{true, true, true, StatusLinked},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OverallStatus(tt.bind, tt.pair, tt.link), "bind=%v pair=%v link=%v", tt.bind, tt.pair, tt.link)
	}
}

func TestRunTwoPortsLinked(t *testing.T) {
	b := fakemodule.NewBench()
	slave := fakemodule.NewHC05(slaveAddr)
	master := fakemodule.NewHC05("0021:13:00ABCD")
	b.Attach("COM1", slave)
	b.Attach("COM2", master)

	rec := &recorder{}
	cache := newCache(t)
	o := NewOrchestrator(Deps{Dialer: b, Cache: cache, Capture: rec})

	cfg := twoPortConfig()
	cfg.NameSlave = "sensor"
	cfg.NameMaster = "hub"
	s := o.Run(context.Background(), cfg)

	require.NoError(t, s.Err)
	assert.Equal(t, StatusLinked, s.Status)
	assert.Equal(t, PhaseDone, s.Phase)
	assert.NotEmpty(t, s.ID)

	require.NotNil(t, s.Address)
	assert.Equal(t, slaveAddr, s.Address.String())
	assert.Equal(t, AddressFromADDR, s.AddressSource)

	assert.Equal(t, "sensor", slave.Name)
	assert.Equal(t, "0", slave.Role)
	assert.Equal(t, 1, slave.Count("AT+ORGL"))
	assert.Zero(t, slave.Resets, "slave stays in AT mode")
	assert.False(t, s.SlaveFacts.ResetIssued)
	assert.Equal(t, "hub", master.Name)
	assert.Equal(t, "1", master.Role)
	assert.Equal(t, "98D3,31,FB2211", master.Bound)
	assert.Equal(t, "98D3,31,FB2211", master.Paired)
	assert.Equal(t, "98D3,31,FB2211", master.Linked)
	assert.Equal(t, 1, master.Count("AT+CMODE=0"))
	assert.True(t, s.MasterFacts.ResetIssued)

	assert.True(t, s.Bind.OK)
	assert.True(t, s.Pair.OK)
	assert.True(t, s.Link.OK)
	assert.Empty(t, s.Warnings)

	assert.False(t, s.Visited(PhaseSwapPrompt))
	assert.Equal(t, []string{
		"Init", "SlavePhase", "AddressResolution", "MasterPhase",
		"BindPhase", "PairPhase", "LinkPhase", "Done",
	}, rec.states())

	e, err := cache.Get(paircache.KeyForPort("COM1"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, slaveAddr, e.Address)

	assert.Equal(t, 0, b.OpenLinks("COM1"))
	assert.Equal(t, 0, b.OpenLinks("COM2"))
}

func TestRunOnePortBoundWhenPairAndLinkRejected(t *testing.T) {
	b := fakemodule.NewBench()
	slave := fakemodule.NewHC05(slaveAddr)
	master := fakemodule.NewHC05("0021:13:00ABCD").
		On("AT+PAIR", "ERROR:(16)").
		On("AT+LINK", "ERROR:(16)")
	b.Attach("COM3", slave)

	cache := newCache(t)
	var swaps []SwapRequest
	swapper := SwapFunc(func(ctx context.Context, req SwapRequest) (string, error) {
		swaps = append(swaps, req)
		return swapTo(b, master)(ctx, req)
	})
	o := NewOrchestrator(Deps{Dialer: b, Cache: cache, Swapper: swapper})

	s := o.Run(context.Background(), Config{
		Mode:       ModeOne,
		Port:       "COM3",
		Pin:        "1234",
		Baud:       9600,
		RetryDelay: -1,
	})

	require.NoError(t, s.Err)
	assert.Equal(t, StatusBound, s.Status)
	assert.Equal(t, "COM3", s.SlavePort)
	assert.Equal(t, "COM3", s.MasterPort)

	// Both modules answer on the first candidate, so every dial uses it.
	crlf38400 := serial.Profile{Baud: 38400, LineEnding: serial.CRLF}
	dials := b.Dials()
	require.NotEmpty(t, dials)
	for _, d := range dials {
		assert.Equal(t, crlf38400, d.Profile)
	}

	require.Len(t, swaps, 1)
	assert.Equal(t, "COM3", swaps[0].Port)
	assert.Equal(t, slaveAddr, swaps[0].Address.String())
	assert.Equal(t, s.ID, swaps[0].SessionID)
	assert.True(t, s.Visited(PhaseSwapPrompt))

	assert.True(t, s.Bind.OK)
	assert.False(t, s.Pair.OK)
	assert.ErrorIs(t, s.Pair.Err, ErrPairFailed)
	assert.ErrorIs(t, s.Pair.Err, at.ErrAckError)
	assert.Equal(t, "16", s.Pair.Result.Code)
	assert.False(t, s.Link.OK)
	assert.ErrorIs(t, s.Link.Err, ErrLinkFailed)
	assert.Len(t, s.Warnings, 2)

	e, err := cache.Get(paircache.KeyForPort("COM3"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, slaveAddr, e.Address)
}

func TestRunMissingAddressFailsBeforeMaster(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC06())
	master := fakemodule.NewHC05("0021:13:00ABCD")
	b.Attach("COM2", master)

	o := NewOrchestrator(Deps{Dialer: b})
	s := o.Run(context.Background(), twoPortConfig())

	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.ErrorIs(t, s.Err, configurator.ErrMissingInput)
	assert.Nil(t, s.Address)
	assert.False(t, s.Visited(PhaseMaster))
	assert.Empty(t, master.Received())
	assert.Equal(t, dialect.HC06, s.SlaveFacts.Module)
	assert.NotEmpty(t, s.Transcript)
}

func TestRunTargetAddressUsedWhenSlaveSilent(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC06())
	master := fakemodule.NewHC05("")
	b.Attach("COM2", master)

	cfg := twoPortConfig()
	cfg.TargetAddress = "98d3:31:fb2211"
	s := NewOrchestrator(Deps{Dialer: b}).Run(context.Background(), cfg)

	require.NoError(t, s.Err)
	assert.Equal(t, AddressSupplied, s.AddressSource)
	assert.Equal(t, "98D3,31,FB2211", master.Bound)
	assert.Equal(t, StatusLinked, s.Status)
}

func TestRunInquirySelection(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC06())
	master := fakemodule.NewHC05("0021:13:00ABCD")
	master.Nearby = []string{"1234:56:ABCDEF", slaveAddr}
	b.Attach("COM2", master)

	var offered []at.Address
	sel := SelectorFunc(func(ctx context.Context, found []at.Address) (at.Address, error) {
		offered = found
		return found[1], nil
	})
	s := NewOrchestrator(Deps{Dialer: b, Selector: sel}).Run(context.Background(), twoPortConfig())

	require.NoError(t, s.Err)
	require.Len(t, offered, 2)
	assert.Equal(t, "1234:56:ABCDEF", offered[0].String())
	assert.Equal(t, AddressInquiry, s.AddressSource)
	assert.Equal(t, "98D3,31,FB2211", master.Bound)
	assert.Equal(t, 1, master.Count("AT+INQ"))

	var inquiry []string
	for _, e := range s.Transcript {
		if e.Phase == PhaseAddressResolution {
			assert.Equal(t, "master", e.Role)
			assert.Equal(t, "COM2", e.Port)
			inquiry = append(inquiry, e.Result.Command.ID)
		}
	}
	assert.Equal(t, []string{"role", "init", "inq"}, inquiry)
}

func TestRunInquiryNoSelection(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC06())
	master := fakemodule.NewHC05("0021:13:00ABCD")
	master.Nearby = []string{slaveAddr}
	b.Attach("COM2", master)

	sel := SelectorFunc(func(ctx context.Context, found []at.Address) (at.Address, error) {
		return at.Address{}, ErrNoSelection
	})
	s := NewOrchestrator(Deps{Dialer: b, Selector: sel}).Run(context.Background(), twoPortConfig())

	assert.ErrorIs(t, s.Err, configurator.ErrMissingInput)
	assert.Empty(t, master.Bound)
}

func TestRunOnePortFallsBackToCache(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM3", fakemodule.NewHC05(""))
	master := fakemodule.NewHC05("0021:13:00ABCD")

	cache := newCache(t)
	require.NoError(t, cache.Put(paircache.KeyForPort("COM3"), slaveAddr))

	o := NewOrchestrator(Deps{Dialer: b, Cache: cache, Swapper: swapTo(b, master)})
	s := o.Run(context.Background(), Config{Mode: ModeOne, Port: "COM3", Pin: "1234", Baud: 9600, RetryDelay: -1})

	require.NoError(t, s.Err)
	assert.Equal(t, AddressCache, s.AddressSource)
	assert.Equal(t, "98D3,31,FB2211", master.Bound)
	assert.Equal(t, StatusLinked, s.Status)
	// The slave's failed AT+ADDR? is a warning, not a failure.
	assert.NotEmpty(t, s.Warnings)
}

func TestRunHC06MasterUnsupported(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC05(slaveAddr))
	b.Attach("COM2", fakemodule.NewHC06())

	s := NewOrchestrator(Deps{Dialer: b}).Run(context.Background(), twoPortConfig())

	assert.ErrorIs(t, s.Err, dialect.ErrUnsupportedAsMaster)
	assert.Equal(t, StatusFailed, s.Status)
	assert.True(t, s.Visited(PhaseMaster))
	assert.False(t, s.Visited(PhaseBind))
}

func TestRunBindFailure(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC05(slaveAddr))
	master := fakemodule.NewHC05("0021:13:00ABCD").On("AT+BIND", "ERROR:(1D)")
	b.Attach("COM2", master)

	s := NewOrchestrator(Deps{Dialer: b}).Run(context.Background(), twoPortConfig())

	assert.Equal(t, StatusFailed, s.Status)
	assert.ErrorIs(t, s.Err, ErrBindFailed)
	assert.Equal(t, "1D", s.Bind.Result.Code)
	assert.Equal(t, 2, master.Count("AT+BIND"))
	assert.Zero(t, master.Count("AT+PAIR"))
	assert.False(t, s.Visited(PhasePair))
}

func TestRunSkipsSteps(t *testing.T) {
	b := fakemodule.NewBench()
	slave := fakemodule.NewHC05(slaveAddr)
	master := fakemodule.NewHC05("0021:13:00ABCD")
	b.Attach("COM1", slave)
	b.Attach("COM2", master)

	cfg := twoPortConfig()
	skip, err := ParseSteps([]string{"orgl,rmaad", "init", "pair", "link", "reset"})
	require.NoError(t, err)
	cfg.Skip = skip

	s := NewOrchestrator(Deps{Dialer: b}).Run(context.Background(), cfg)
	require.NoError(t, s.Err)

	assert.Equal(t, StatusBound, s.Status)
	assert.True(t, s.Pair.Skipped)
	assert.True(t, s.Link.Skipped)
	assert.Zero(t, slave.Count("AT+ORGL"))
	assert.Zero(t, slave.Resets)
	assert.Zero(t, master.Count("AT+RMAAD"))
	assert.Zero(t, master.Count("AT+INIT"))
	assert.Zero(t, master.Count("AT+PAIR"))
	assert.Zero(t, master.Resets)
}

func TestRunGateCancellationKeepsTranscript(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM3", fakemodule.NewHC05(slaveAddr))

	gate := NewGate()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-gate.Requests()
		cancel()
	}()

	s := NewOrchestrator(Deps{Dialer: b, Swapper: gate}).Run(ctx, Config{
		Mode: ModeOne, Port: "COM3", Pin: "1234", Baud: 9600, RetryDelay: -1,
	})

	assert.Equal(t, StatusFailed, s.Status)
	assert.ErrorIs(t, s.Err, context.Canceled)
	assert.True(t, s.Visited(PhaseSwapPrompt))
	assert.NotEmpty(t, s.Transcript)
	require.NotNil(t, s.Address)
}

func TestRunGateResume(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM3", fakemodule.NewHC05(slaveAddr))
	master := fakemodule.NewHC05("0021:13:00ABCD")

	gate := NewGate()
	go func() {
		req := <-gate.Requests()
		b.Detach(req.Port)
		b.Attach("COM4", master)
		gate.Resume("COM4")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := NewOrchestrator(Deps{Dialer: b, Swapper: gate}).Run(ctx, Config{
		Mode: ModeOne, Port: "COM3", Pin: "1234", Baud: 9600, RetryDelay: -1,
	})

	require.NoError(t, s.Err)
	assert.Equal(t, "COM4", s.MasterPort)
	assert.Equal(t, StatusLinked, s.Status)
}

func TestRunIgnoresResumeBeforeSwapRequest(t *testing.T) {
	b := fakemodule.NewBench()
	slave := fakemodule.NewHC05(slaveAddr)
	b.Attach("COM3", slave)
	master := fakemodule.NewHC05("0021:13:00ABCD")

	gate := NewGate()
	gate.Resume("")

	go func() {
		req := <-gate.Requests()
		b.Detach(req.Port)
		b.Attach(req.Port, master)
		gate.Resume("")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := NewOrchestrator(Deps{Dialer: b, Swapper: gate}).Run(ctx, Config{
		Mode: ModeOne, Port: "COM3", Pin: "1234", Baud: 9600, RetryDelay: -1,
	})

	require.NoError(t, s.Err)
	assert.Equal(t, StatusLinked, s.Status)
	assert.Equal(t, "0", slave.Role)
	assert.Empty(t, slave.Bound)
	assert.Equal(t, "98D3,31,FB2211", master.Bound)
}

func TestRunInvalidConfig(t *testing.T) {
	b := fakemodule.NewBench()
	o := NewOrchestrator(Deps{Dialer: b})

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"same ports", func(c *Config) { c.MasterPort = c.SlavePort }},
		{"missing master", func(c *Config) { c.MasterPort = "" }},
		{"bad pin", func(c *Config) { c.Pin = "12a4" }},
		{"zero baud", func(c *Config) { c.Baud = 0 }},
		{"long name", func(c *Config) { c.NameSlave = "abcdefghijklmnopqrstuvwxyz0123456789" }},
		{"non-ascii name", func(c *Config) { c.NameMaster = "grüße" }},
		{"bad target", func(c *Config) { c.TargetAddress = "nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := twoPortConfig()
			tt.modify(&cfg)
			s := o.Run(context.Background(), cfg)
			assert.ErrorIs(t, s.Err, ErrInvalidConfig)
			assert.Equal(t, StatusFailed, s.Status)
		})
	}
	assert.Empty(t, b.Dials())
}

func TestRunOnePortNeedsSwapper(t *testing.T) {
	s := NewOrchestrator(Deps{Dialer: fakemodule.NewBench()}).Run(context.Background(), Config{
		Mode: ModeOne, Port: "COM3", Pin: "1234", Baud: 9600,
	})
	assert.ErrorIs(t, s.Err, ErrInvalidConfig)
}

func TestRunSkipPinAllowsEmptyPin(t *testing.T) {
	cfg := twoPortConfig()
	cfg.Pin = ""
	cfg.Skip = StepSet{StepPin: true}
	cfg.DryRun = true

	s := NewOrchestrator(Deps{}).Run(context.Background(), cfg)
	require.NoError(t, s.Err)
	for _, line := range append(s.Preview.Slave, s.Preview.Master...) {
		assert.NotContains(t, line, "PSWD")
	}
}

func TestDryRun(t *testing.T) {
	b := fakemodule.NewBench()
	cfg := twoPortConfig()
	cfg.NameSlave = "sensor"
	cfg.DryRun = true

	s := NewOrchestrator(Deps{Dialer: b}).Run(context.Background(), cfg)

	require.NoError(t, s.Err)
	assert.Equal(t, StatusPlanned, s.Status)
	assert.Empty(t, b.Dials())
	require.NotNil(t, s.Preview)
	assert.Equal(t, []string{
		"AT+ORGL", "AT+NAME=sensor", "AT+PSWD=1234", "AT+UART=9600,0,0",
		"AT+ROLE=0", "AT+ADDR?",
	}, s.Preview.Slave)
	assert.Equal(t, []string{
		"AT+PSWD=1234", "AT+UART=9600,0,0", "AT+ROLE=1", "AT+CMODE=0",
		"AT+RMAAD", "AT+INIT", "AT+BIND=XXXX,XX,XXXXXX",
		"AT+PAIR=XXXX,XX,XXXXXX,20", "AT+LINK=XXXX,XX,XXXXXX", "AT+RESET",
	}, s.Preview.Master)
}

func TestDryRunWithTargetAddress(t *testing.T) {
	cfg := twoPortConfig()
	cfg.DryRun = true
	cfg.TargetAddress = slaveAddr

	s := NewOrchestrator(Deps{}).Run(context.Background(), cfg)
	require.NoError(t, s.Err)
	assert.Contains(t, s.Preview.Master, "AT+BIND=98D3,31,FB2211")
	assert.Equal(t, AddressSupplied, s.AddressSource)
}

func TestDryRunHC06MasterFails(t *testing.T) {
	cfg := twoPortConfig()
	cfg.DryRun = true
	cfg.MasterModule = dialect.HC06

	s := NewOrchestrator(Deps{}).Run(context.Background(), cfg)
	assert.True(t, errors.Is(s.Err, dialect.ErrUnsupportedAsMaster))
}
