package websocket

import (
	"io"
	"net"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// closeGracePeriod 发送关闭帧的最长等待时间
const closeGracePeriod = time.Second

// conn 将 WebSocket 消息流适配为 interfaces.Conn
type conn struct {
	ws *ws.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu sync.Mutex

	laddr ma.Multiaddr
	raddr ma.Multiaddr

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.Conn = (*conn)(nil)

func newConn(c *ws.Conn, laddr, raddr ma.Multiaddr) *conn {
	return &conn{ws: c, laddr: laddr, raddr: raddr}
}

// Read 连续读取二进制消息内容
func (c *conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != ws.BinaryMessage {
				continue
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write 写入一条二进制消息
func (c *conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(ws.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 发送关闭帧并关闭底层连接
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *conn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *conn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *conn) LocalMultiaddr() ma.Multiaddr  { return c.laddr }
func (c *conn) RemoteMultiaddr() ma.Multiaddr { return c.raddr }

func (c *conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *conn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *conn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
