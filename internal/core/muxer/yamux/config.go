package yamux

import (
	"io"
	"time"

	"github.com/hashicorp/yamux"
)

// Config 多路复用配置
type Config struct {
	MaxStreamWindowSize uint32
	EnableKeepAlive     bool
	KeepAliveInterval   time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxStreamWindowSize: 256 * 1024,
		EnableKeepAlive:     true,
		KeepAliveInterval:   30 * time.Second,
	}
}

// toYamux 转换为 hashicorp yamux 配置
func (c Config) toYamux() *yamux.Config {
	yc := &yamux.Config{
		AcceptBacklog:          256,
		EnableKeepAlive:        c.EnableKeepAlive,
		KeepAliveInterval:      30 * time.Second,
		ConnectionWriteTimeout: 10 * time.Second,
		MaxStreamWindowSize:    256 * 1024,
		StreamOpenTimeout:      75 * time.Second,
		StreamCloseTimeout:     5 * time.Minute,
		LogOutput:              io.Discard,
	}
	if c.MaxStreamWindowSize > 0 {
		yc.MaxStreamWindowSize = c.MaxStreamWindowSize
	}
	if c.KeepAliveInterval > 0 {
		yc.KeepAliveInterval = c.KeepAliveInterval
	}
	return yc
}
