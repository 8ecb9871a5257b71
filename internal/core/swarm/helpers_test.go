package swarm

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer/yamux"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport/tcp"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

const (
	echoProto    = "/echo/1.0.0"
	testDeadline = 10 * time.Second
)

// testNode 监听回环 TCP 的测试节点
type testNode struct {
	*Swarm
	tcp *transport.CountingTransport
}

type nodeConfig struct {
	muxers []interfaces.StreamMuxer
	reuse  bool
	opts   []Option
}

// newTestNode 创建并监听测试节点，测试结束时关闭
func newTestNode(t *testing.T, cfg nodeConfig) *testNode {
	t.Helper()

	id, err := identity.Generate()
	require.NoError(t, err)
	ps, err := peerstore.NewPeerstore(64)
	require.NoError(t, err)

	local := types.NewPeerInfo(id.ID(), ma.StringCast("/ip4/127.0.0.1/tcp/0"))
	opts := append([]Option{
		WithPublicKey(id.PublicKey()),
		WithPeerstore(ps),
		WithNegotiateTimeout(5 * time.Second),
		WithIdentifyTimeout(5 * time.Second),
	}, cfg.opts...)

	s, err := NewSwarm(local, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ct := transport.NewCountingTransport(tcp.New(tcp.DefaultConfig()))
	require.NoError(t, s.Transport().Add(transport.KeyTCP, ct))
	require.NoError(t, s.Listen(transport.KeyTCP))

	for _, m := range cfg.muxers {
		s.Connection().AddStreamMuxer(m)
	}
	if cfg.reuse {
		require.NoError(t, s.Connection().Reuse())
	}

	return &testNode{Swarm: s, tcp: ct}
}

// info 返回节点的可拨号信息
func (n *testNode) info() *types.PeerInfo {
	return types.NewPeerInfo(n.LocalPeer(), n.LocalAddrs()...)
}

func goYamux() interfaces.StreamMuxer {
	return muxer.NewTransport(muxer.DefaultConfig())
}

func hcYamux() interfaces.StreamMuxer {
	return yamux.NewFactory(yamux.DefaultConfig())
}

func echoHandler(st interfaces.Stream) {
	defer st.Close()
	_, _ = io.Copy(st, st)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	t.Cleanup(cancel)
	return ctx
}

// roundTrip 写入消息并读取等长回显
func roundTrip(t *testing.T, st interfaces.Stream, msg string) {
	t.Helper()
	require.NoError(t, st.SetDeadline(time.Now().Add(5*time.Second)))

	_, err := st.Write([]byte(msg))
	require.NoError(t, err)

	buf := make([]byte, len(msg))
	_, err = io.ReadFull(st, buf)
	require.NoError(t, err)
	require.Equal(t, msg, string(buf))
}

// deadAddrs 返回无人监听的回环地址
func deadAddrs(t *testing.T, n int) []ma.Multiaddr {
	t.Helper()
	out := make([]ma.Multiaddr, 0, n)
	for i := 0; i < n; i++ {
		node := newTestNode(t, nodeConfig{})
		addrs := node.LocalAddrs()
		require.NoError(t, node.Close())
		out = append(out, addrs...)
	}
	return out
}

// resettingListener 返回接受连接后立即重置的 TCP 地址
func resettingListener(t *testing.T) ma.Multiaddr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			if tc, ok := c.(*net.TCPConn); ok {
				_ = tc.SetLinger(0)
			}
			_ = c.Close()
		}
	}()

	addr, err := manet.FromNetAddr(ln.Addr())
	require.NoError(t, err)
	return addr
}
