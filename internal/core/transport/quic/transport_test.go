package quic

import (
	"context"
	"io"
	"testing"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	a, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return a
}

func newTestTransport(t *testing.T) *Transport {
	t.Helper()
	tr, err := New(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestTransport_Filter(t *testing.T) {
	tr := newTestTransport(t)
	got := tr.Filter([]ma.Multiaddr{
		mustAddr(t, "/ip4/127.0.0.1/tcp/1"),
		mustAddr(t, "/ip4/127.0.0.1/udp/1/quic-v1"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "/ip4/127.0.0.1/udp/1/quic-v1", got[0].String())
}

// TestTransport_ListenDial 拨号方先写入，监听方接受第一条流
func TestTransport_ListenDial(t *testing.T) {
	server := newTestTransport(t)
	client := newTestTransport(t)

	accepted := make(chan interfaces.Conn, 1)
	bound, err := server.Listen([]ma.Multiaddr{mustAddr(t, "/ip4/127.0.0.1/udp/0/quic-v1")}, func(c interfaces.Conn) {
		accepted <- c
	})
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.NotEqual(t, "/ip4/127.0.0.1/udp/0/quic-v1", bound[0].String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.Dial(ctx, bound[0])
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	var sc interfaces.Conn
	select {
	case sc = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("未接受到入站连接")
	}
	defer sc.Close()

	buf := make([]byte, 4)
	_, err = io.ReadFull(sc, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	_, err = sc.Write([]byte("pong"))
	require.NoError(t, err)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf))

	t.Log("✅ QUIC 传输读写成功")
}

func TestTransport_DialUnsupported(t *testing.T) {
	tr := newTestTransport(t)
	_, err := tr.Dial(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/1"))
	assert.ErrorIs(t, err, ErrUnsupportedAddr)
}

func TestTransport_ListenAfterClose(t *testing.T) {
	tr, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	_, err = tr.Listen([]ma.Multiaddr{mustAddr(t, "/ip4/127.0.0.1/udp/0/quic-v1")}, func(interfaces.Conn) {})
	assert.ErrorIs(t, err, ErrTransportClosed)
}
