package ipv4_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadrohq/kadro/modules/numbering/domain/value_objects/ipv4"
)

func TestToInt(t *testing.T) {
	t.Run("converts dotted decimal", func(t *testing.T) {
		cases := []struct {
			address  string
			expected uint32
		}{
			{"0.0.0.0", 0},
			{"0.0.0.1", 1},
			{"192.168.1.1", 3232235777},
			{"10.0.0.0", 167772160},
			{"255.255.255.255", 4294967295},
		}
		for _, tc := range cases {
			got, err := ipv4.ToInt(tc.address)
			require.NoError(t, err, tc.address)
			assert.Equal(t, tc.expected, got, tc.address)
		}
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, addr := range []string{
			"",
			"192.168.1",
			"192.168.1.1.1",
			"256.0.0.1",
			"-1.0.0.0",
			"a.b.c.d",
			"192.168.1.",
			"192..1.1",
			" 192.168.1.1",
		} {
			_, err := ipv4.ToInt(addr)
			require.ErrorIs(t, err, ipv4.ErrInvalidAddressFormat, "address %q", addr)
		}
	})
}

func TestFromInt(t *testing.T) {
	assert.Equal(t, "192.168.1.1", ipv4.FromInt(3232235777))
	assert.Equal(t, "0.0.0.0", ipv4.FromInt(0))
	assert.Equal(t, "255.255.255.255", ipv4.FromInt(4294967295))
}

func TestRoundTrip(t *testing.T) {
	for _, addr := range []string{"10.20.30.40", "172.16.0.1", "1.2.3.4"} {
		n, err := ipv4.ToInt(addr)
		require.NoError(t, err)
		assert.Equal(t, addr, ipv4.FromInt(n))
	}
}

func TestCountInRange(t *testing.T) {
	t.Run("inclusive of both endpoints", func(t *testing.T) {
		count, err := ipv4.CountInRange("192.168.1.1", "192.168.1.100")
		require.NoError(t, err)
		assert.Equal(t, uint32(100), count)
	})

	t.Run("single address range", func(t *testing.T) {
		count, err := ipv4.CountInRange("10.0.0.5", "10.0.0.5")
		require.NoError(t, err)
		assert.Equal(t, uint32(1), count)
	})

	t.Run("inverted range has zero capacity", func(t *testing.T) {
		count, err := ipv4.CountInRange("192.168.1.100", "192.168.1.1")
		require.NoError(t, err)
		assert.Equal(t, uint32(0), count)
	})

	t.Run("propagates format errors", func(t *testing.T) {
		_, err := ipv4.CountInRange("not-an-ip", "192.168.1.1")
		require.ErrorIs(t, err, ipv4.ErrInvalidAddressFormat)
	})
}

func TestWithinRange(t *testing.T) {
	cases := []struct {
		addr     string
		start    string
		end      string
		expected bool
	}{
		{"192.168.1.50", "192.168.1.1", "192.168.1.100", true},
		{"192.168.1.1", "192.168.1.1", "192.168.1.100", true},
		{"192.168.1.100", "192.168.1.1", "192.168.1.100", true},
		{"192.168.1.101", "192.168.1.1", "192.168.1.100", false},
		{"192.168.0.255", "192.168.1.1", "192.168.1.100", false},
		{"10.0.0.1", "192.168.1.100", "192.168.1.1", false},
	}
	for _, tc := range cases {
		got, err := ipv4.WithinRange(tc.addr, tc.start, tc.end)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, got, "%s in [%s, %s]", tc.addr, tc.start, tc.end)
	}
}
