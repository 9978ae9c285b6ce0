package configurator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hclink/hclink-go/internal/fakemodule"
	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/serial"
)

var (
	hc05Profile = serial.Profile{Baud: 38400, LineEnding: serial.CRLF}
	hc06Profile = serial.Profile{Baud: 9600, LineEnding: serial.None}
	noDelay     = Options{RetryDelay: -1}
)

func TestExecutePlanHC05(t *testing.T) {
	b := fakemodule.NewBench()
	m := fakemodule.NewHC05("98D3:31:FB2211")
	b.Attach("COM1", m)

	plan, err := BuildPlan(dialect.HC05Dialect{}, fullFacts(), allToggles())
	require.NoError(t, err)

	report, err := ExecutePlan(context.Background(), b, "COM1", hc05Profile, plan, Facts{}, noDelay)
	require.NoError(t, err)

	assert.Len(t, report.Transcript, plan.Len())
	assert.Empty(t, report.Warnings)
	assert.Equal(t, "beacon", report.Facts.Name)
	assert.Equal(t, "4321", report.Facts.Pin)
	assert.Equal(t, 9600, report.Facts.Baud)
	assert.Equal(t, dialect.RoleSlave, report.Facts.Role)
	require.NotNil(t, report.Facts.Address)
	assert.Equal(t, "98D3:31:FB2211", report.Facts.Address.String())
	assert.True(t, report.Facts.ResetIssued)

	assert.Equal(t, "beacon", m.Name)
	assert.Equal(t, "0", m.Role)
	assert.Equal(t, 0, b.OpenLinks("COM1"))
}

func TestExecutePlanHC06UsesAlternates(t *testing.T) {
	b := fakemodule.NewBench()
	m := fakemodule.NewHC06()
	m.On("AT+PIN", "ERROR")
	m.On("AT+PSWD=", "OK")
	b.Attach("COM1", m)

	plan, err := BuildPlan(dialect.HC06Dialect{}, fullFacts(), allToggles())
	require.NoError(t, err)

	report, err := ExecutePlan(context.Background(), b, "COM1", hc06Profile, plan, Facts{}, noDelay)
	require.NoError(t, err)

	// AT+ADDR? is silent on HC-06: a warning, not a failure.
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "addr")
	assert.Nil(t, report.Facts.Address)

	pin := report.Transcript[1]
	assert.Equal(t, "AT+PSWD=4321", pin.Sent)
	assert.Equal(t, 2, pin.Attempts)
	assert.Equal(t, "4321", report.Facts.Pin)
}

func TestExecuteHaltsAtFirstCriticalFailure(t *testing.T) {
	b := fakemodule.NewBench()
	m := fakemodule.NewHC05("98D3:31:FB2211").On("AT+UART=", "ERROR:(1D)")
	b.Attach("COM1", m)

	plan, err := BuildPlan(dialect.HC05Dialect{}, fullFacts(), allToggles())
	require.NoError(t, err)

	report, err := ExecutePlan(context.Background(), b, "COM1", hc05Profile, plan, Facts{}, noDelay)
	require.Error(t, err)
	assert.ErrorIs(t, err, at.ErrAckError)

	// name, pin, uart attempted; role, addr and reset never sent.
	assert.Len(t, report.Transcript, 3)
	assert.Equal(t, 0, m.Count("AT+ROLE"))
	assert.Equal(t, 0, m.Count("AT+RESET"))
	assert.Equal(t, "beacon", report.Facts.Name)
	assert.Zero(t, report.Facts.Baud)
}

func TestExecuteNonCriticalFailureContinues(t *testing.T) {
	b := fakemodule.NewBench()
	m := fakemodule.NewHC05("98D3:31:FB2211").On("AT+VERSION", "ERROR:(0)").On("AT+CLASS", "OK")
	b.Attach("COM1", m)

	plan, err := BuildPlan(dialect.HC05Dialect{}, Facts{}, Toggles{Extra: []string{"AT+VERSION?", "AT+CLASS=0"}})
	require.NoError(t, err)

	report, err := ExecutePlan(context.Background(), b, "COM1", hc05Profile, plan, Facts{}, noDelay)
	require.NoError(t, err)
	assert.Len(t, report.Transcript, 2)
	assert.Len(t, report.Warnings, 1)
}

func TestExecuteRequiredAddressFails(t *testing.T) {
	b := fakemodule.NewBench()
	b.Attach("COM1", fakemodule.NewHC06())

	plan, err := BuildPlan(dialect.HC06Dialect{}, Facts{}, Toggles{Address: true, RequireAddress: true})
	require.NoError(t, err)

	_, err = ExecutePlan(context.Background(), b, "COM1", hc06Profile, plan, Facts{}, noDelay)
	assert.ErrorIs(t, err, at.ErrTimeout)
}

func TestExecutePlanPortError(t *testing.T) {
	b := fakemodule.NewBench()
	plan, err := BuildPlan(dialect.HC05Dialect{}, Facts{}, Toggles{})
	require.NoError(t, err)

	_, err = ExecutePlan(context.Background(), b, "COM4", hc05Profile, plan, Facts{}, noDelay)
	assert.ErrorIs(t, err, serial.ErrPortNotFound)
}
