package dep2p

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

const echoProto ProtocolID = "/echo/1.0.0"

// startTestNode 启动仅监听回环 TCP 的节点
func startTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()

	base := []Option{
		WithTransports("tcp"),
		WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
		WithLogLevel("warn"),
	}
	node, err := Start(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	return node
}

func echo(s Stream) {
	defer s.Close()
	_, _ = io.Copy(s, s)
}

// TestNode_DialEcho 两个节点之间协商协议并回显
func TestNode_DialEcho(t *testing.T) {
	a := startTestNode(t)
	b := startTestNode(t)
	b.Handle(echoProto, echo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := a.Dial(ctx, b.Info(), echoProto)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = st.Write([]byte("hello"))
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = io.ReadFull(st, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	assert.Equal(t, []PeerID{b.ID()}, a.Peers())
	assert.Equal(t, StateRunning, a.State())

	t.Log("✅ 节点间回显成功")
}

// TestNode_DialAsyncWarm 预热拨号不返回流
func TestNode_DialAsyncWarm(t *testing.T) {
	a := startTestNode(t)
	b := startTestNode(t)

	st, errCh := a.DialAsync(context.Background(), b.Info(), "")
	assert.Nil(t, st)
	require.NoError(t, <-errCh)

	_, ok := a.Swarm().MuxedConn(b.ID())
	assert.True(t, ok)
}

// TestNode_ReuseDialBack 启用复用时反向拨号不建立新连接
func TestNode_ReuseDialBack(t *testing.T) {
	a := startTestNode(t, WithReuse(true))
	b := startTestNode(t, WithReuse(true))
	a.Handle(echoProto, echo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Connect(ctx, b.Info()))

	require.Eventually(t, func() bool {
		_, ok := b.Swarm().MuxedConn(a.ID())
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	st, err := b.DialPeer(ctx, a.ID(), echoProto)
	require.NoError(t, err)
	defer st.Close()
	assert.NotEmpty(t, b.Peerstore().Addrs(a.ID()))
}

// TestNode_Lifecycle 启动、重复启动与关闭
func TestNode_Lifecycle(t *testing.T) {
	node, err := New(context.Background(),
		WithTransports("tcp"),
		WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
	)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, node.State())
	assert.False(t, node.ID().IsEmpty())

	require.NoError(t, node.Start(context.Background()))
	assert.ErrorIs(t, node.Start(context.Background()), ErrAlreadyStarted)

	addrs := node.ListenAddrs()
	require.Len(t, addrs, 1)
	assert.NotContains(t, addrs[0].String(), "/tcp/0")

	require.NoError(t, node.Close())
	assert.NoError(t, node.Close())
	assert.Equal(t, StateStopped, node.State())
	assert.ErrorIs(t, node.Start(context.Background()), ErrNodeClosed)

	_, err = node.Dial(context.Background(), types.NewPeerInfo("peer"), echoProto)
	assert.ErrorIs(t, err, ErrSwarmClosed)
}

// TestNode_CloseWithoutStart 未启动的节点可以直接关闭
func TestNode_CloseWithoutStart(t *testing.T) {
	node, err := New(context.Background(), WithTransports("tcp"))
	require.NoError(t, err)
	require.NoError(t, node.Close())
	assert.Equal(t, StateStopped, node.State())
}

// TestNode_WithIdentity 注入的私钥决定节点 ID
func TestNode_WithIdentity(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	want, err := types.IDFromPublicKey(pub)
	require.NoError(t, err)

	node, err := New(context.Background(), WithTransports("tcp"), WithIdentity(priv))
	require.NoError(t, err)
	defer node.Close()
	assert.Equal(t, want, node.ID())

	_, err = New(context.Background(), WithIdentity(ed25519.PrivateKey{1, 2, 3}))
	assert.Error(t, err)
}

// TestNode_IdentityFilePersists 同一密钥文件得到相同节点 ID
func TestNode_IdentityFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	first, err := New(context.Background(), WithTransports("tcp"), WithIdentityFile(path))
	require.NoError(t, err)
	defer first.Close()

	second, err := New(context.Background(), WithTransports("tcp"), WithIdentityFile(path))
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.ID(), second.ID())
}

// TestNode_InvalidOptions 无效配置在创建时报错
func TestNode_InvalidOptions(t *testing.T) {
	cases := map[string][]Option{
		"no transport":   {WithTransports()},
		"bad transport":  {WithTransports("carrier-pigeon")},
		"bad addr":       {WithListenAddrs("not-a-multiaddr")},
		"bad codec":      {WithMuxers("/mplex/6.7.0")},
		"zero timeout":   {WithNegotiateTimeout(0)},
		"bad log level":  {WithLogLevel("loud")},
		"nil config":     {WithConfig(nil)},
		"zero peerstore": {WithPeerstoreCapacity(0)},
	}

	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), opts...)
			assert.Error(t, err)
		})
	}
}

// TestNode_WithConfig 使用完整配置，后续选项修改副本
func TestNode_WithConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Transport.EnableQUIC = false
	cfg.ListenAddrs = []string{"/ip4/127.0.0.1/tcp/0"}

	node, err := New(context.Background(), WithConfig(cfg), WithMuxers(config.MuxerYamuxHC))
	require.NoError(t, err)
	defer node.Close()

	assert.Equal(t, []string{config.MuxerYamuxHC}, node.Swarm().Connection().StreamMuxers())
	assert.Equal(t, []string{config.MuxerYamux, config.MuxerYamuxHC}, cfg.Muxer.Codecs)
}

// TestNode_Metrics 启用指标后暴露 Prometheus 处理器
func TestNode_Metrics(t *testing.T) {
	a := startTestNode(t, WithMetrics(true))
	b := startTestNode(t)

	require.NoError(t, a.Connect(context.Background(), b.Info()))

	h := a.MetricsHandler()
	require.NotNil(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "swarm_dials_total")

	assert.Nil(t, b.MetricsHandler())
}

// TestVersionInfo 版本信息
func TestVersionInfo(t *testing.T) {
	assert.Contains(t, VersionInfo(), Version)
}
