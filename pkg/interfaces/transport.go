package interfaces

import (
	"context"
	"net"

	ma "github.com/multiformats/go-multiaddr"
)

// Conn 原始连接
//
// 在 net.Conn 基础上携带两端的 multiaddr，形状与 manet.Conn 一致。
// 原始连接在任意时刻只归属一个持有者：拨号任务、连接缓存或多路复用器。
type Conn interface {
	net.Conn

	// LocalMultiaddr 返回本地地址
	LocalMultiaddr() ma.Multiaddr

	// RemoteMultiaddr 返回远端地址
	RemoteMultiaddr() ma.Multiaddr
}

// ConnHandler 入站连接处理器
type ConnHandler func(Conn)

// Transport 定义传输层接口
//
// 实现必须支持并发调用 Dial。
type Transport interface {
	// Filter 返回本传输能够处理的地址子集，保持输入顺序
	Filter(addrs []ma.Multiaddr) []ma.Multiaddr

	// Dial 拨号单个地址
	Dial(ctx context.Context, raddr ma.Multiaddr) (Conn, error)

	// Listen 在给定地址上监听，每个入站连接交给 handler
	//
	// 返回实际绑定的地址（与 laddrs 一一对应，例如端口 0 已解析），
	// 不需要解析时可以返回 nil。
	Listen(laddrs []ma.Multiaddr, handler ConnHandler) ([]ma.Multiaddr, error)

	// Close 关闭所有监听器
	Close() error
}
