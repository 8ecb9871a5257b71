package quic

import (
	"context"
	"net"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// closeGracePeriod 关闭写端后等待对端确认的时间
const closeGracePeriod = time.Second

// conn 将一条 QUIC 双向流暴露为 interfaces.Conn
type conn struct {
	quic.Stream
	qconn quic.Connection

	laddr ma.Multiaddr
	raddr ma.Multiaddr

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.Conn = (*conn)(nil)

// Close 关闭写端，宽限期后关闭整条 QUIC 连接
//
// 立即 CloseWithError 会丢弃尚未确认的数据。
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Stream.Close()
		c.Stream.CancelRead(0)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
			defer cancel()
			select {
			case <-c.qconn.Context().Done():
			case <-ctx.Done():
			}
			_ = c.qconn.CloseWithError(0, "")
		}()
	})
	return c.closeErr
}

func (c *conn) LocalAddr() net.Addr  { return c.qconn.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.qconn.RemoteAddr() }

func (c *conn) LocalMultiaddr() ma.Multiaddr  { return c.laddr }
func (c *conn) RemoteMultiaddr() ma.Multiaddr { return c.raddr }
