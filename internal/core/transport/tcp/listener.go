package tcp

import (
	"net"
	"sync/atomic"

	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// listener 单个 TCP 监听器
type listener struct {
	ml      manet.Listener
	handler interfaces.ConnHandler
	tune    func(net.Conn)
	closed  atomic.Bool
}

// serve 接受循环，直到监听器关闭
func (l *listener) serve() {
	for {
		conn, err := l.ml.Accept()
		if err != nil {
			if !l.closed.Load() {
				logger.Warn("TCP 接受连接失败", "addr", l.ml.Multiaddr(), "error", err)
			}
			return
		}
		l.tune(conn)

		logger.Debug("接受入站连接", "remote", conn.RemoteMultiaddr())
		go l.handler(conn)
	}
}

func (l *listener) close() error {
	l.closed.Store(true)
	return l.ml.Close()
}
