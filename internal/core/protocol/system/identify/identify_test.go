package identify

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net"
	"testing"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// muxedPair 创建一对 go-yamux 会话：server 为监听端，client 为拨号端
func muxedPair(t *testing.T) (server, client interfaces.MuxedConn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()
	c, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	s := <-accepted
	require.NotNil(t, s)

	tr := muxer.NewTransport(muxer.DefaultConfig())
	client, err = tr.NewConn(c, false)
	require.NoError(t, err)
	server, err = tr.NewConn(s, true)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return server, client
}

// serveRouter 在会话上接受子流并交给路由器
func serveRouter(mc interfaces.MuxedConn, r *protocol.Router) {
	go func() {
		for {
			s, err := mc.AcceptStream()
			if err != nil {
				return
			}
			go r.Dispatch(s)
		}
	}()
}

func newService(t *testing.T, r *protocol.Router) (*Service, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)

	addr := ma.StringCast("/ip4/127.0.0.1/tcp/4001")
	svc := NewService(types.NewPeerInfo(id.ID(), addr), id.PublicKey(), r.Protocols)
	r.Handle(ProtocolID, svc.Handler)
	return svc, id
}

// TestIdentify_Exec 监听端获取拨号端的身份信息
func TestIdentify_Exec(t *testing.T) {
	server, client := muxedPair(t)

	router := protocol.NewRouter(5 * time.Second)
	router.Handle("/echo/1.0.0", func(s interfaces.Stream) { _ = s.Close() })
	svc, id := newService(t, router)
	serveRouter(client, router)

	observed := ma.StringCast("/ip4/10.0.0.1/tcp/9000")
	backing, other := transport.NewMockConnPair(observed)
	defer backing.Close()
	defer other.Close()

	msg, peer, err := Exec(context.Background(), server, backing, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, id.ID(), peer)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001"}, msg.ListenAddrs)
	assert.Contains(t, msg.Protocols, ProtocolID)
	assert.Contains(t, msg.Protocols, "/echo/1.0.0")
	assert.Equal(t, AgentVersion, msg.AgentVersion)
	require.Len(t, msg.Addrs(), 1)

	require.Eventually(t, func() bool {
		a := svc.ObservedAddr()
		return a != nil && a.Equal(observed)
	}, 2*time.Second, 10*time.Millisecond)

	t.Log("✅ Identify 交换成功并记录观察地址")
}

// TestIdentify_ExecUnsupported 对端未注册 identify
func TestIdentify_ExecUnsupported(t *testing.T) {
	server, client := muxedPair(t)

	router := protocol.NewRouter(5 * time.Second)
	router.Handle("/echo/1.0.0", func(s interfaces.Stream) { _ = s.Close() })
	serveRouter(client, router)

	_, _, err := Exec(context.Background(), server, nil, 2*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifyFailed)
	assert.ErrorIs(t, err, protocol.ErrProtocolNotSupported)

	t.Log("✅ 对端不支持 identify 时返回 ErrIdentifyFailed")
}

// TestIdentify_ExecTimeout 对端不响应时超时
func TestIdentify_ExecTimeout(t *testing.T) {
	server, _ := muxedPair(t)

	start := time.Now()
	_, _, err := Exec(context.Background(), server, nil, 200*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifyFailed)
	assert.Less(t, time.Since(start), 3*time.Second)

	t.Log("✅ Identify 超时返回错误")
}

// TestMessage_Verify 校验 PeerID 与公钥
func TestMessage_Verify(t *testing.T) {
	a, err := identity.Generate()
	require.NoError(t, err)
	b, err := identity.Generate()
	require.NoError(t, err)

	good := &Message{
		PeerID:    a.ID().String(),
		PublicKey: base64.StdEncoding.EncodeToString(a.PublicKey()),
	}
	id, pub, err := good.Verify()
	require.NoError(t, err)
	assert.Equal(t, a.ID(), id)
	assert.Equal(t, a.PublicKey(), pub)

	forged := &Message{
		PeerID:    a.ID().String(),
		PublicKey: base64.StdEncoding.EncodeToString(b.PublicKey()),
	}
	_, _, err = forged.Verify()
	assert.ErrorIs(t, err, ErrPeerIDMismatch)

	short := &Message{
		PeerID:    a.ID().String(),
		PublicKey: base64.StdEncoding.EncodeToString([]byte("short")),
	}
	_, _, err = short.Verify()
	assert.ErrorIs(t, err, types.ErrInvalidPublicKey)

	t.Log("✅ Message 校验正确")
}

// TestFrame_RoundTrip 帧编解码不越过边界
func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, &request{ObservedAddr: "/ip4/1.2.3.4/tcp/1"}))
	require.NoError(t, writeFrame(&buf, &request{ObservedAddr: "/ip4/5.6.7.8/tcp/2"}))

	r := io.MultiReader(&buf)
	var first, second request
	require.NoError(t, readFrame(r, &first))
	require.NoError(t, readFrame(r, &second))
	assert.Equal(t, "/ip4/1.2.3.4/tcp/1", first.ObservedAddr)
	assert.Equal(t, "/ip4/5.6.7.8/tcp/2", second.ObservedAddr)

	t.Log("✅ 连续帧按边界读取")
}

// TestFrame_TooLarge 拒绝超长帧
func TestFrame_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0x7f})

	var req request
	err := readFrame(&buf, &req)
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	t.Log("✅ 超长帧被拒绝")
}
