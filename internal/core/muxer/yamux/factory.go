package yamux

import (
	"net"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// ID hashicorp yamux 编解码标识
const ID = "/yamux-hc/1.0.0"

// Factory hashicorp yamux 编解码工厂
type Factory struct {
	config *yamux.Config
}

var _ interfaces.StreamMuxer = (*Factory)(nil)

// NewFactory 创建工厂
func NewFactory(cfg Config) *Factory {
	return &Factory{config: cfg.toYamux()}
}

// ID 返回编解码标识
func (f *Factory) ID() string {
	return ID
}

// NewConn 在原始连接上创建会话
func (f *Factory) NewConn(conn net.Conn, isServer bool) (interfaces.MuxedConn, error) {
	var (
		sess *yamux.Session
		err  error
	)
	if isServer {
		sess, err = yamux.Server(conn, f.config)
	} else {
		sess, err = yamux.Client(conn, f.config)
	}
	if err != nil {
		return nil, err
	}
	return &Muxer{session: sess}, nil
}
