package at

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+ADDR:98d3:31:fb2211", "98D3:31:FB2211"},
		{"98D3:31:FB2211", "98D3:31:FB2211"},
		{"98D3,31,FB2211", "98D3:31:FB2211"},
		{"+ADDR:2016:4:80372", "2016:04:080372"},
		{"+INQ:2:72:D2224,3E0104,FFBC", "0002:72:0D2224"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, ok := ParseAddress(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "OK", "ERROR:(16)", "+ROLE:1"} {
		_, ok := ParseAddress(in)
		assert.False(t, ok, in)
	}
}

func TestAddressForms(t *testing.T) {
	a := MustParseAddress("98d3:31:fb2211")
	assert.Equal(t, "98D3:31:FB2211", a.String())
	assert.Equal(t, "98D3,31,FB2211", a.Comma())
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestParseAddressesDeduplicates(t *testing.T) {
	raw := "+INQ:98D3:31:FB2211,1F00,7FFF\n+INQ:2016:4:80372,1F00,7FFF\n+INQ:98D3:31:FB2211,1F00,7FFF\nOK"
	got := ParseAddresses(raw)
	require.Len(t, got, 2)
	assert.Equal(t, "98D3:31:FB2211", got[0].String())
	assert.Equal(t, "2016:04:080372", got[1].String())
}
