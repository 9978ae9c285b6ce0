package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hclink/hclink-go/pkg/config"
)

func TestParseSteps(t *testing.T) {
	set, err := ParseSteps([]string{"pair, LINK", "", "reset"})
	require.NoError(t, err)
	assert.Equal(t, []string{"link", "pair", "reset"}, set.Names())
	assert.True(t, set.Has(StepPair))
	assert.False(t, set.Has(StepName))

	for _, bad := range []string{"bind", "uart", "role", "cmode", "bogus"} {
		_, err := ParseSteps([]string{bad})
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}

func TestNilStepSet(t *testing.T) {
	var s StepSet
	assert.False(t, s.Has(StepPair))
	assert.Empty(t, s.Names())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"one", ModeOne},
		{"1", ModeOne},
		{"TWO", ModeTwo},
		{"", ModeTwo},
	}
	for _, tt := range tests {
		m, err := ParseMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m)
	}
	_, err := ParseMode("three")
	assert.Error(t, err)
}

func TestConfigFromSettings(t *testing.T) {
	s := config.Default()
	s.Pair.Mode = "one"
	s.Pair.Skip = []string{"reset"}
	s.Pair.ExtraMaster = []string{"AT+CLASS=0"}
	s.Defaults.Pin = "4321"

	cfg, err := ConfigFromSettings(s)
	require.NoError(t, err)
	assert.Equal(t, ModeOne, cfg.Mode)
	assert.Equal(t, "4321", cfg.Pin)
	assert.Equal(t, config.DefaultBaud, cfg.Baud)
	assert.True(t, cfg.Skip.Has(StepReset))
	assert.Equal(t, []string{"AT+CLASS=0"}, cfg.ExtraMaster)
	assert.Equal(t, 20*time.Second, cfg.PairTimeout)

	s.Pair.Skip = []string{"bind"}
	_, err = ConfigFromSettings(s)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNormalizeOnePortResolvesPorts(t *testing.T) {
	cfg := Config{Mode: ModeOne, SlavePort: "COM3", Pin: "1234", Baud: 9600}
	require.NoError(t, cfg.normalize())
	assert.Equal(t, "COM3", cfg.Port)
	assert.Equal(t, "COM3", cfg.MasterPort)
	assert.Equal(t, "slave@COM3", cfg.CacheKey)
	assert.Equal(t, config.DefaultPairTimeout, cfg.PairTimeout)

	cfg = Config{Mode: ModeOne, SlavePort: "COM3", MasterPort: "COM4", Pin: "1234", Baud: 9600}
	assert.ErrorIs(t, cfg.normalize(), ErrInvalidConfig)
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "SlavePhase", PhaseSlave.String())
	assert.Equal(t, "SwapPrompt", PhaseSwapPrompt.String())
	assert.Equal(t, "Failed", PhaseFailed.String())
	assert.Equal(t, "one", ModeOne.String())
}
