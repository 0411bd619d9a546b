package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualify(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "routeguard"}
	tests := map[string]string{
		" navigation/decision ": "routeguard.navigation_decision",
		"foo..bar":              "routeguard.foo.bar",
		"  ":                    "",
	}
	for input, want := range tests {
		assert.Equal(t, want, c.qualify(input), input)
	}

	bare := &Client{}
	assert.Equal(t, "navigation.error", bare.qualify(".navigation.error."))
}

func TestEncodeTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " routeguard "}
	local := map[string]string{"outcome": " redirect ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,outcome:redirect,service:routeguard", encodeTags(global, local))
	assert.Empty(t, encodeTags(nil, nil))
}

func TestDisabledClientIsNoop(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	c.Count("x", 1, nil)
	c.Gauge("x", 1, nil)
	c.Timing("x", time.Second, nil)
	require.NoError(t, c.Close())

	var nilClient *Client
	nilClient.Count("x", 1, nil)
	assert.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
}

func TestClientWritesDatagrams(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "routeguard.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	read := func() string {
		buf := make([]byte, 512)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, readErr := pc.ReadFrom(buf)
		require.NoError(t, readErr)
		return string(buf[:n])
	}

	c.Count("navigation.decision", 1, map[string]string{"outcome": "proceed"})
	assert.Equal(t, "routeguard.navigation.decision:1|c|#env:test,outcome:proceed", read())

	c.Gauge("auth.authenticated", 1, nil)
	assert.Equal(t, "routeguard.auth.authenticated:1|g|#env:test", read())

	c.Timing("navigation.duration", 1500*time.Microsecond, nil)
	assert.Equal(t, "routeguard.navigation.duration:1.5|ms|#env:test", read())
}
