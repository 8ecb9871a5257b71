package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddrPredicates(t *testing.T) {
	tests := []struct {
		addr string
		tcp  bool
		ws   bool
		quic bool
	}{
		{"/ip4/127.0.0.1/tcp/4001", true, false, false},
		{"/ip6/::1/tcp/4001", true, false, false},
		{"/dns4/example.com/tcp/443", true, false, false},
		{"/ip4/127.0.0.1/tcp/4001/ws", false, true, false},
		{"/ip4/127.0.0.1/udp/4001/quic-v1", false, false, true},
		{"/ip4/127.0.0.1/udp/4001", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			a := mustAddrs(t, tt.addr)[0]
			assert.Equal(t, tt.tcp, IsTCPAddr(a))
			assert.Equal(t, tt.ws, IsWebSocketAddr(a))
			assert.Equal(t, tt.quic, IsQUICAddr(a))
		})
	}
}

func TestFilterAddrs(t *testing.T) {
	addrs := mustAddrs(t,
		"/ip4/127.0.0.1/udp/1/quic-v1",
		"/ip4/127.0.0.1/tcp/1",
		"/ip4/127.0.0.1/tcp/2/ws",
		"/ip4/127.0.0.1/tcp/3",
	)

	got := FilterAddrs(addrs, IsTCPAddr)
	assert.Len(t, got, 2)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/1", got[0].String())
	assert.Equal(t, "/ip4/127.0.0.1/tcp/3", got[1].String())
}
