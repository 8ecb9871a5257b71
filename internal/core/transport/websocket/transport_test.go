package websocket

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

func TestTransport_Filter(t *testing.T) {
	tr := New(DefaultConfig())
	got := tr.Filter([]ma.Multiaddr{
		mustAddr(t, "/ip4/127.0.0.1/tcp/1"),
		mustAddr(t, "/ip4/127.0.0.1/tcp/2/ws"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/2/ws", got[0].String())
}

// TestTransport_ListenDial 回环监听、拨号与双向读写
func TestTransport_ListenDial(t *testing.T) {
	tr := New(DefaultConfig())
	defer tr.Close()

	accepted := make(chan interfaces.Conn, 1)
	bound, err := tr.Listen([]ma.Multiaddr{mustAddr(t, "/ip4/127.0.0.1/tcp/0/ws")}, func(c interfaces.Conn) {
		accepted <- c
	})
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.NotEqual(t, "/ip4/127.0.0.1/tcp/0/ws", bound[0].String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := tr.Dial(ctx, bound[0])
	require.NoError(t, err)
	defer conn.Close()

	var server interfaces.Conn
	select {
	case server = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("未接受到入站连接")
	}
	defer server.Close()

	// 两次写入，读取跨越消息边界
	_, err = conn.Write([]byte("he"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("llo"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	_, err = server.Write([]byte("ok"))
	require.NoError(t, err)
	reply := make([]byte, 2)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(reply))

	t.Log("✅ WebSocket 传输读写成功")
}

func TestTransport_CloseEOF(t *testing.T) {
	tr := New(DefaultConfig())
	defer tr.Close()

	accepted := make(chan interfaces.Conn, 1)
	bound, err := tr.Listen([]ma.Multiaddr{mustAddr(t, "/ip4/127.0.0.1/tcp/0/ws")}, func(c interfaces.Conn) {
		accepted <- c
	})
	require.NoError(t, err)

	conn, err := tr.Dial(context.Background(), bound[0])
	require.NoError(t, err)

	server := <-accepted
	require.NoError(t, conn.Close())

	_, err = server.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestTransport_DialUnsupported(t *testing.T) {
	tr := New(DefaultConfig())
	_, err := tr.Dial(context.Background(), mustAddr(t, "/ip4/127.0.0.1/tcp/1"))
	assert.ErrorIs(t, err, ErrUnsupportedAddr)
}
