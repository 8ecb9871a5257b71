package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// errMockNotImplemented 模拟传输未设置对应函数
var errMockNotImplemented = errors.New("mock: not implemented")

// MockTransport 可编程的模拟传输
//
// 未设置的函数使用默认行为：Filter 全部保留，Dial 失败，Listen/Close 成功。
type MockTransport struct {
	FilterFunc func(addrs []ma.Multiaddr) []ma.Multiaddr
	DialFunc   func(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error)
	ListenFunc func(laddrs []ma.Multiaddr, handler interfaces.ConnHandler) ([]ma.Multiaddr, error)
	CloseFunc  func() error

	Closed atomic.Bool
}

var _ interfaces.Transport = (*MockTransport)(nil)

// Filter 实现 interfaces.Transport
func (m *MockTransport) Filter(addrs []ma.Multiaddr) []ma.Multiaddr {
	if m.FilterFunc != nil {
		return m.FilterFunc(addrs)
	}
	return addrs
}

// Dial 实现 interfaces.Transport
func (m *MockTransport) Dial(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error) {
	if m.DialFunc != nil {
		return m.DialFunc(ctx, raddr)
	}
	return nil, errMockNotImplemented
}

// Listen 实现 interfaces.Transport
func (m *MockTransport) Listen(laddrs []ma.Multiaddr, handler interfaces.ConnHandler) ([]ma.Multiaddr, error) {
	if m.ListenFunc != nil {
		return m.ListenFunc(laddrs, handler)
	}
	return nil, nil
}

// Close 实现 interfaces.Transport
func (m *MockTransport) Close() error {
	var err error
	if m.CloseFunc != nil {
		err = m.CloseFunc()
	}
	m.Closed.Store(true)
	return err
}

// CountingTransport 统计拨号次数的传输包装
type CountingTransport struct {
	interfaces.Transport

	dials atomic.Int64
}

// NewCountingTransport 包装传输
func NewCountingTransport(t interfaces.Transport) *CountingTransport {
	return &CountingTransport{Transport: t}
}

// Dial 计数后委托
func (c *CountingTransport) Dial(ctx context.Context, raddr ma.Multiaddr) (interfaces.Conn, error) {
	c.dials.Add(1)
	return c.Transport.Dial(ctx, raddr)
}

// Dials 返回拨号次数
func (c *CountingTransport) Dials() int {
	return int(c.dials.Load())
}

// GatedCloseTransport Close 阻塞直到 Release 被调用
//
// 用于验证关闭流程等待所有传输完成，而与完成顺序无关。
type GatedCloseTransport struct {
	MockTransport

	gate     chan struct{}
	once     sync.Once
	Finished atomic.Bool
}

// NewGatedCloseTransport 创建阻塞关闭的传输
func NewGatedCloseTransport() *GatedCloseTransport {
	return &GatedCloseTransport{gate: make(chan struct{})}
}

// Close 等待放行
func (g *GatedCloseTransport) Close() error {
	<-g.gate
	g.Finished.Store(true)
	return g.MockTransport.Close()
}

// Release 放行 Close
func (g *GatedCloseTransport) Release() {
	g.once.Do(func() { close(g.gate) })
}

// MockConn 基于 net.Pipe 的内存连接
type MockConn struct {
	net.Conn
	Local  ma.Multiaddr
	Remote ma.Multiaddr
}

var _ interfaces.Conn = (*MockConn)(nil)

// LocalMultiaddr 实现 interfaces.Conn
func (c *MockConn) LocalMultiaddr() ma.Multiaddr { return c.Local }

// RemoteMultiaddr 实现 interfaces.Conn
func (c *MockConn) RemoteMultiaddr() ma.Multiaddr { return c.Remote }

// NewMockConnPair 创建一对互通的内存连接
//
// 返回 (拨号端, 监听端)，raddr 为拨号端看到的远端地址。
func NewMockConnPair(raddr ma.Multiaddr) (*MockConn, *MockConn) {
	a, b := net.Pipe()
	return &MockConn{Conn: a, Remote: raddr}, &MockConn{Conn: b, Local: raddr}
}
