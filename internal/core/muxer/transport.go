package muxer

import (
	"io"
	"math"
	"net"
	"time"

	"github.com/libp2p/go-yamux/v5"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// ID go-yamux 编解码标识
const ID = "/yamux/1.0.0"

// Config 多路复用配置
type Config struct {
	MaxStreamWindowSize uint32
	EnableKeepAlive     bool
	KeepAliveInterval   time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		// 16MiB 窗口：100ms 延迟下可达 160MB/s 吞吐量
		MaxStreamWindowSize: 16 * 1024 * 1024,
		EnableKeepAlive:     true,
		KeepAliveInterval:   30 * time.Second,
	}
}

// Transport go-yamux 编解码工厂
type Transport struct {
	config *yamux.Config
}

var _ interfaces.StreamMuxer = (*Transport)(nil)

// NewTransport 创建编解码工厂
func NewTransport(cfg Config) *Transport {
	yc := yamux.DefaultConfig()
	yc.MaxStreamWindowSize = cfg.MaxStreamWindowSize
	yc.EnableKeepAlive = cfg.EnableKeepAlive
	if cfg.KeepAliveInterval > 0 {
		yc.KeepAliveInterval = cfg.KeepAliveInterval
	}
	yc.LogOutput = io.Discard
	// 入站流数量不在会话层限制
	yc.MaxIncomingStreams = math.MaxUint32

	return &Transport{config: yc}
}

// ID 返回编解码标识
func (t *Transport) ID() string {
	return ID
}

// NewConn 在原始连接上创建会话
func (t *Transport) NewConn(conn net.Conn, isServer bool) (interfaces.MuxedConn, error) {
	var (
		sess *yamux.Session
		err  error
	)
	if isServer {
		sess, err = yamux.Server(conn, t.config, nil)
	} else {
		sess, err = yamux.Client(conn, t.config, nil)
	}
	if err != nil {
		return nil, err
	}
	return &muxedConn{session: sess}, nil
}
