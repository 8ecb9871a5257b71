package interfaces

import (
	"context"
	"net"
)

// StreamMuxer 多路复用编解码工厂
//
// ID 即协商时使用的协议标识，例如 "/yamux/1.0.0"。
type StreamMuxer interface {
	// ID 返回多路复用协议标识
	ID() string

	// NewConn 在原始连接上创建多路复用会话
	NewConn(conn net.Conn, isServer bool) (MuxedConn, error)
}

// MuxedConn 多路复用会话
type MuxedConn interface {
	// OpenStream 打开新的子流
	OpenStream(ctx context.Context) (Stream, error)

	// AcceptStream 接受远端打开的子流，会话关闭时返回错误
	AcceptStream() (Stream, error)

	// Close 关闭会话及全部子流
	Close() error

	// IsClosed 检查会话是否已关闭
	IsClosed() bool

	// CloseChan 返回会话关闭时关闭的通道
	CloseChan() <-chan struct{}

	// NumStreams 返回当前活跃子流数量
	NumStreams() int
}
