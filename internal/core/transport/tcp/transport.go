package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

// Config TCP 传输配置
type Config struct {
	// KeepAlivePeriod KeepAlive 周期，0 表示系统默认
	KeepAlivePeriod time.Duration

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		KeepAlivePeriod: 15 * time.Second,
		NoDelay:         true,
	}
}

// ============================================================================
//                              Transport 实现
// ============================================================================

// Transport TCP 传输
type Transport struct {
	config Config
	dialer net.Dialer

	mu        sync.Mutex
	listeners []*listener

	closed atomic.Bool
}

var _ interfaces.Transport = (*Transport)(nil)

// New 创建 TCP 传输
func New(config Config) *Transport {
	return &Transport{
		config: config,
		dialer: net.Dialer{KeepAlive: config.KeepAlivePeriod},
	}
}

// Filter 保留纯 TCP 地址
func (t *Transport) Filter(addrs []ma.Multiaddr) []ma.Multiaddr {
	return types.FilterAddrs(addrs, types.IsTCPAddr)
}

// Dial 拨号 TCP 地址
func (t *Transport) Dial(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}
	if !types.IsTCPAddr(raddr) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddr, raddr)
	}

	network, host, err := manet.DialArgs(raddr)
	if err != nil {
		return nil, err
	}

	nc, err := t.dialer.DialContext(ctx, network, host)
	if err != nil {
		return nil, err
	}
	t.tune(nc)

	conn, err := manet.WrapNetConn(nc)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	return conn, nil
}

// Listen 在每个地址上启动监听
func (t *Transport) Listen(laddrs []ma.Multiaddr, handler interfaces.ConnHandler) ([]ma.Multiaddr, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	started := make([]*listener, 0, len(laddrs))
	bound := make([]ma.Multiaddr, 0, len(laddrs))
	for _, laddr := range laddrs {
		ml, err := manet.Listen(laddr)
		if err != nil {
			for _, l := range started {
				_ = l.close()
			}
			return nil, fmt.Errorf("listen %s: %w", laddr, err)
		}
		l := &listener{ml: ml, handler: handler, tune: t.tune}
		started = append(started, l)
		bound = append(bound, ml.Multiaddr())
	}

	t.mu.Lock()
	t.listeners = append(t.listeners, started...)
	t.mu.Unlock()

	for _, l := range started {
		go l.serve()
		logger.Info("TCP 监听已启动", "addr", l.ml.Multiaddr())
	}
	return bound, nil
}

// Close 关闭所有监听器
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	listeners := t.listeners
	t.listeners = nil
	t.mu.Unlock()

	var firstErr error
	for _, l := range listeners {
		if err := l.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Transport) tune(nc net.Conn) {
	if tc, ok := nc.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(t.config.NoDelay)
	}
}
