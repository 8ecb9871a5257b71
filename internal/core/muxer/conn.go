package muxer

import (
	"context"

	"github.com/libp2p/go-yamux/v5"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
)

var logger = log.Logger("core/muxer")

// muxedConn 包装 yamux.Session
type muxedConn struct {
	session *yamux.Session
}

var _ interfaces.MuxedConn = (*muxedConn)(nil)

// OpenStream 打开新流
func (c *muxedConn) OpenStream(ctx context.Context) (interfaces.Stream, error) {
	s, err := c.session.OpenStream(ctx)
	if err != nil {
		logger.Debug("打开流失败", "error", err)
		return nil, parseError(err)
	}
	return s, nil
}

// AcceptStream 接受新流
func (c *muxedConn) AcceptStream() (interfaces.Stream, error) {
	s, err := c.session.AcceptStream()
	if err != nil {
		return nil, parseError(err)
	}
	return s, nil
}

// Close 关闭会话
func (c *muxedConn) Close() error {
	return c.session.Close()
}

// IsClosed 检查会话是否已关闭
func (c *muxedConn) IsClosed() bool {
	return c.session.IsClosed()
}

// CloseChan 会话关闭时关闭
func (c *muxedConn) CloseChan() <-chan struct{} {
	return c.session.CloseChan()
}

// NumStreams 活跃流数量
func (c *muxedConn) NumStreams() int {
	return c.session.NumStreams()
}
