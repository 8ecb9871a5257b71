package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/transport/websocket")

// wsComponent "/ws" 地址组件
var wsComponent = ma.StringCast("/ws")

// Config WebSocket 传输配置
type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	EnableCompression bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
	}
}

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport WebSocket 传输
type Transport struct {
	config   Config
	dialer   *ws.Dialer
	upgrader ws.Upgrader

	mu      sync.Mutex
	servers []*http.Server

	closed atomic.Bool
}

var _ interfaces.Transport = (*Transport)(nil)

// New 创建 WebSocket 传输
func New(config Config) *Transport {
	return &Transport{
		config: config,
		dialer: &ws.Dialer{
			HandshakeTimeout:  config.HandshakeTimeout,
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			EnableCompression: config.EnableCompression,
		},
		upgrader: ws.Upgrader{
			HandshakeTimeout:  config.HandshakeTimeout,
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			EnableCompression: config.EnableCompression,
			// 节点间连接没有浏览器同源语义
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Filter 保留 WebSocket 地址
func (t *Transport) Filter(addrs []ma.Multiaddr) []ma.Multiaddr {
	return types.FilterAddrs(addrs, types.IsWebSocketAddr)
}

// Dial 拨号 WebSocket 地址
func (t *Transport) Dial(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}
	if !types.IsWebSocketAddr(raddr) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddr, raddr)
	}

	_, host, err := manet.DialArgs(raddr.Decapsulate(wsComponent))
	if err != nil {
		return nil, err
	}

	c, _, err := t.dialer.DialContext(ctx, "ws://"+host+"/", nil)
	if err != nil {
		return nil, err
	}

	laddr, err := toWebSocketMultiaddr(c.LocalAddr())
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return newConn(c, laddr, raddr), nil
}

// Listen 在每个地址上启动 HTTP 服务并升级为 WebSocket
func (t *Transport) Listen(laddrs []ma.Multiaddr, handler interfaces.ConnHandler) ([]ma.Multiaddr, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	listeners := make([]net.Listener, 0, len(laddrs))
	bound := make([]ma.Multiaddr, 0, len(laddrs))
	for _, laddr := range laddrs {
		network, host, err := manet.DialArgs(laddr.Decapsulate(wsComponent))
		if err != nil {
			closeAll(listeners)
			return nil, err
		}
		nl, err := net.Listen(network, host)
		if err != nil {
			closeAll(listeners)
			return nil, fmt.Errorf("listen %s: %w", laddr, err)
		}
		addr, err := toWebSocketMultiaddr(nl.Addr())
		if err != nil {
			_ = nl.Close()
			closeAll(listeners)
			return nil, err
		}
		listeners = append(listeners, nl)
		bound = append(bound, addr)
	}

	for i, nl := range listeners {
		srv := &http.Server{
			Handler:           t.upgradeHandler(bound[i], handler),
			ReadHeaderTimeout: t.config.HandshakeTimeout,
		}
		t.mu.Lock()
		t.servers = append(t.servers, srv)
		t.mu.Unlock()

		go func(srv *http.Server, nl net.Listener, addr ma.Multiaddr) {
			if err := srv.Serve(nl); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("WebSocket 服务退出", "addr", addr, "error", err)
			}
		}(srv, nl, bound[i])
		logger.Info("WebSocket 监听已启动", "addr", bound[i])
	}
	return bound, nil
}

func (t *Transport) upgradeHandler(laddr ma.Multiaddr, handler interfaces.ConnHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("WebSocket 升级失败", "remote", r.RemoteAddr, "error", err)
			return
		}
		raddr, err := toWebSocketMultiaddr(c.RemoteAddr())
		if err != nil {
			_ = c.Close()
			return
		}
		logger.Debug("接受入站连接", "remote", raddr)
		handler(newConn(c, laddr, raddr))
	})
}

// Close 关闭所有 HTTP 服务
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	servers := t.servers
	t.servers = nil
	t.mu.Unlock()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func toWebSocketMultiaddr(addr net.Addr) (ma.Multiaddr, error) {
	tcpAddr, err := manet.FromNetAddr(addr)
	if err != nil {
		return nil, err
	}
	return tcpAddr.Encapsulate(wsComponent), nil
}

func closeAll(listeners []net.Listener) {
	for _, l := range listeners {
		_ = l.Close()
	}
}
