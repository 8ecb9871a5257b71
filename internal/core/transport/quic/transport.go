package quic

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/transport/quic")

var quicComponent = ma.StringCast("/quic-v1")

// Config QUIC 传输配置
type Config struct {
	// PrivateKey 节点私钥，nil 时生成临时密钥
	PrivateKey ed25519.PrivateKey

	// MaxIdleTimeout 连接空闲超时
	MaxIdleTimeout time.Duration

	// KeepAlivePeriod KeepAlive 间隔，0 表示禁用
	KeepAlivePeriod time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 15 * time.Second,
	}
}

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport QUIC 传输
//
// 每个监听地址持有独立的 UDP socket 与 quic.Transport。
// 拨号复用第一个监听 socket，未监听时创建随机端口 socket。
type Transport struct {
	tlsConf  *tls.Config
	quicConf *quic.Config

	mu        sync.Mutex
	sockets   []*socket
	dialer    *socket
	closed    bool
	listeners []*quic.Listener
}

type socket struct {
	udp *net.UDPConn
	tr  *quic.Transport
}

var _ interfaces.Transport = (*Transport)(nil)

// New 创建 QUIC 传输
func New(config Config) (*Transport, error) {
	priv := config.PrivateKey
	if priv == nil {
		var err error
		if _, priv, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return nil, err
		}
	}

	tlsConf, err := newTLSConfig(priv)
	if err != nil {
		return nil, err
	}

	return &Transport{
		tlsConf: tlsConf,
		quicConf: &quic.Config{
			MaxIdleTimeout:  config.MaxIdleTimeout,
			KeepAlivePeriod: config.KeepAlivePeriod,
		},
	}, nil
}

// Filter 保留 QUIC v1 地址
func (t *Transport) Filter(addrs []ma.Multiaddr) []ma.Multiaddr {
	return types.FilterAddrs(addrs, types.IsQUICAddr)
}

// Dial 拨号并打开唯一的双向流
func (t *Transport) Dial(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error) {
	if !types.IsQUICAddr(raddr) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddr, raddr)
	}

	sock, err := t.dialSocket()
	if err != nil {
		return nil, err
	}

	udpAddr, err := toUDPAddr(raddr)
	if err != nil {
		return nil, err
	}

	qconn, err := sock.tr.Dial(ctx, udpAddr, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, err
	}

	stream, err := qconn.OpenStreamSync(ctx)
	if err != nil {
		_ = qconn.CloseWithError(0, "")
		return nil, err
	}

	laddr, err := toQUICMultiaddr(qconn.LocalAddr())
	if err != nil {
		_ = qconn.CloseWithError(0, "")
		return nil, err
	}
	return &conn{Stream: stream, qconn: qconn, laddr: laddr, raddr: raddr}, nil
}

// Listen 在每个地址上启动 QUIC 监听
func (t *Transport) Listen(laddrs []ma.Multiaddr, handler interfaces.ConnHandler) ([]ma.Multiaddr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}

	bound := make([]ma.Multiaddr, 0, len(laddrs))
	started := make([]*quic.Listener, 0, len(laddrs))
	for _, laddr := range laddrs {
		udpAddr, err := toUDPAddr(laddr)
		if err != nil {
			return nil, err
		}
		udp, err := net.ListenUDP(udpAddr.Network(), udpAddr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", laddr, err)
		}
		sock := &socket{udp: udp, tr: &quic.Transport{Conn: udp}}

		ln, err := sock.tr.Listen(t.tlsConf, t.quicConf)
		if err != nil {
			sock.close()
			return nil, fmt.Errorf("listen %s: %w", laddr, err)
		}

		addr, err := toQUICMultiaddr(ln.Addr())
		if err != nil {
			_ = ln.Close()
			sock.close()
			return nil, err
		}

		t.sockets = append(t.sockets, sock)
		if t.dialer == nil {
			t.dialer = sock
		}
		t.listeners = append(t.listeners, ln)
		started = append(started, ln)
		bound = append(bound, addr)
	}

	for i, ln := range started {
		go t.acceptLoop(ln, bound[i], handler)
		logger.Info("QUIC 监听已启动", "addr", bound[i])
	}
	return bound, nil
}

func (t *Transport) acceptLoop(ln *quic.Listener, laddr ma.Multiaddr, handler interfaces.ConnHandler) {
	for {
		qconn, err := ln.Accept(context.Background())
		if err != nil {
			if !errors.Is(err, quic.ErrServerClosed) {
				logger.Debug("QUIC 接受连接结束", "addr", laddr, "error", err)
			}
			return
		}
		go t.acceptStream(qconn, laddr, handler)
	}
}

// acceptStream 等待拨号方打开的第一条流
func (t *Transport) acceptStream(qconn quic.Connection, laddr ma.Multiaddr, handler interfaces.ConnHandler) {
	ctx, cancel := context.WithTimeout(context.Background(), t.quicConf.MaxIdleTimeout)
	defer cancel()

	stream, err := qconn.AcceptStream(ctx)
	if err != nil {
		logger.Debug("等待 QUIC 流失败", "remote", qconn.RemoteAddr(), "error", err)
		_ = qconn.CloseWithError(0, "")
		return
	}

	raddr, err := toQUICMultiaddr(qconn.RemoteAddr())
	if err != nil {
		_ = qconn.CloseWithError(0, "")
		return
	}

	logger.Debug("接受入站连接", "remote", raddr)
	handler(&conn{Stream: stream, qconn: qconn, laddr: laddr, raddr: raddr})
}

// Close 关闭所有监听器与 socket
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	listeners := t.listeners
	sockets := t.sockets
	if t.dialer != nil && !containsSocket(sockets, t.dialer) {
		sockets = append(sockets, t.dialer)
	}
	t.listeners, t.sockets, t.dialer = nil, nil, nil
	t.mu.Unlock()

	var firstErr error
	for _, ln := range listeners {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range sockets {
		s.close()
	}
	return firstErr
}

func (t *Transport) dialSocket() (*socket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.dialer != nil {
		return t.dialer, nil
	}

	udp, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("listen udp for dial: %w", err)
	}
	t.dialer = &socket{udp: udp, tr: &quic.Transport{Conn: udp}}
	return t.dialer, nil
}

func (s *socket) close() {
	_ = s.tr.Close()
	_ = s.udp.Close()
}

func containsSocket(list []*socket, s *socket) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func toUDPAddr(addr ma.Multiaddr) (*net.UDPAddr, error) {
	na, err := manet.ToNetAddr(addr.Decapsulate(quicComponent))
	if err != nil {
		return nil, err
	}
	udpAddr, ok := na.(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddr, addr)
	}
	return udpAddr, nil
}

func toQUICMultiaddr(addr net.Addr) (ma.Multiaddr, error) {
	udpAddr, err := manet.FromNetAddr(addr)
	if err != nil {
		return nil, err
	}
	return udpAddr.Encapsulate(quicComponent), nil
}
