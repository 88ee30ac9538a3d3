package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcerrors "github.com/maksimkurb/proxycfg/src/internal/errors"
)

func codeOf(t *testing.T, err error) pcerrors.ErrorCode {
	t.Helper()
	var e *pcerrors.Error
	require.True(t, errors.As(err, &e), "expected *errors.Error, got %T", err)
	return e.Code
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in    string
		want  Port
		valid bool
	}{
		{"1", 1, true},
		{"443", 443, true},
		{"65535", 65535, true},
		{"0", 0, false},
		{"65536", 0, false},
		{"080", 0, false},
		{" 80", 0, false},
		{"+80", 0, false},
		{"-1", 0, false},
		{"http", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if !tt.valid {
				require.Error(t, err)
				assert.Equal(t, pcerrors.ErrCodeInvalidPort, codeOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortRange(t *testing.T) {
	tests := []struct {
		in    string
		want  PortRange
		valid bool
	}{
		{"100:200", PortRange{100, 200}, true},
		{"0:100", PortRange{0, 100}, true},
		{":100", PortRange{0, 100}, true},
		{"100:", PortRange{100, 65535}, true},
		{"1:65535", PortRange{1, 65535}, true},
		{"200:100", PortRange{}, false},
		{"100:100", PortRange{}, false},
		{":", PortRange{}, false},
		{":65536", PortRange{}, false},
		{"65535:", PortRange{}, false},
		{"100", PortRange{}, false},
		{"a:b", PortRange{}, false},
		{"99999999999999999999:1", PortRange{}, false},
		{"", PortRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePortRange(tt.in)
			if !tt.valid {
				require.Error(t, err)
				assert.Equal(t, pcerrors.ErrCodeInvalidPortRange, codeOf(t, err))
				assert.Contains(t, err.Error(), "Expecting a valid port range")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortRange_RoundTrip(t *testing.T) {
	for _, in := range []string{"100:200", "0:100", ":100", "100:", "1:2", "65534:65535", ":1"} {
		t.Run(in, func(t *testing.T) {
			first, err := ParsePortRange(in)
			require.NoError(t, err)
			assert.Less(t, first.Start, first.End)

			second, err := ParsePortRange(first.String())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestParsePortList(t *testing.T) {
	got, err := ParsePortList("22,53,80,443")
	require.NoError(t, err)
	assert.Equal(t, PortList{22, 53, 80, 443}, got)
	assert.True(t, got.Contains(53))
	assert.False(t, got.Contains(8080))
	assert.Equal(t, "22,53,80,443", got.String())

	_, err = ParsePortList("80,,443")
	assert.Equal(t, pcerrors.ErrCodeInvalidPort, codeOf(t, err))

	_, err = ParsePortList("80, 443")
	assert.Equal(t, pcerrors.ErrCodeInvalidPort, codeOf(t, err))

	_, err = ParsePortList("")
	assert.Equal(t, pcerrors.ErrCodeInvalidPort, codeOf(t, err))
}

func TestParsePortList_Duplicate(t *testing.T) {
	for _, in := range []string{"80,443,80", "443,443", "1,2,3,2"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePortList(in)
			require.Error(t, err)

			var e *pcerrors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, pcerrors.ErrCodeDuplicatePort, e.Code)
			assert.Contains(t, e.Message, e.Value)
		})
	}

	_, err := ParsePortList("80,443,80")
	var e *pcerrors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "80", e.Value)
}

func TestParseRoutingPort(t *testing.T) {
	for _, kw := range []string{"all", "common"} {
		rp, err := ParseRoutingPort(kw)
		require.NoError(t, err)
		assert.Equal(t, kw, rp.Keyword)
		assert.Equal(t, kw, rp.String())
	}

	rp, err := ParseRoutingPort("80,443")
	require.NoError(t, err)
	assert.Equal(t, PortList{80, 443}, rp.Ports)

	_, err = ParseRoutingPort("")
	assert.Equal(t, pcerrors.ErrCodeInvalidPort, codeOf(t, err))

	_, err = ParseRoutingPort("80,80")
	assert.Equal(t, pcerrors.ErrCodeDuplicatePort, codeOf(t, err))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		kind AddressKind
	}{
		{"local", AddressLocal},
		{"wan", AddressWAN},
		{"8.8.8.8", AddressIPv4},
		{"2001:4860:4860::8888", AddressIPv6},
		{"::1", AddressIPv6},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr, err := ParseAddress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, addr.Kind)
			assert.Equal(t, tt.in, addr.String())
		})
	}

	for _, in := range []string{"", "dns.google", "8.8.8", "fe80::1%eth0", "1.1.1.1:53", "LOCAL"} {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.Equal(t, pcerrors.ErrCodeInvalidAddress, codeOf(t, err))
		})
	}
}

func TestIsHostname(t *testing.T) {
	assert.True(t, IsHostname("example.com"))
	assert.True(t, IsHostname("sub.example.com."))
	assert.True(t, IsHostname("localhost"))
	assert.True(t, IsHostname("xn--80ak6aa92e.com"))

	assert.False(t, IsHostname(""))
	assert.False(t, IsHostname("exa mple.com"))
	assert.False(t, IsHostname("-bad.com"))
	assert.False(t, IsHostname("a..b"))
	assert.False(t, IsHostname("999.1.1.1"))
	assert.False(t, IsHostname("*.example.com"))
}

func TestParseServerAddress(t *testing.T) {
	tests := []struct {
		in            string
		scheme        string
		needsResolver bool
	}{
		{"local", "local", false},
		{"8.8.8.8", "udp", false},
		{"dns.google", "udp", true},
		{"tcp://1.1.1.1", "tcp", false},
		{"tcp://1.1.1.1:5353", "tcp", false},
		{"tls://dns.google", "tls", true},
		{"https://1.1.1.1/dns-query", "https", false},
		{"https://dns.google/dns-query", "https", true},
		{"quic://dns.adguard.com", "quic", true},
		{"h3://dns.google/dns-query", "h3", true},
		{"rcode://refused", "rcode", false},
		{"dhcp://auto", "dhcp", false},
		{"udp://[2001:4860:4860::8888]:53", "udp", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr, err := ParseServerAddress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, addr.Scheme)
			assert.Equal(t, tt.needsResolver, addr.NeedsResolver())
		})
	}

	for _, in := range []string{"", "ftp://1.1.1.1", "rcode://maybe", "tcp://", "tcp://1.1.1.1:0", "tls://dns.google/path", "not a host", "https://user@dns.google/"} {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseServerAddress(in)
			assert.Equal(t, pcerrors.ErrCodeInvalidAddress, codeOf(t, err))
		})
	}
}
