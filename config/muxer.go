package config

import (
	"errors"
	"fmt"
	"time"
)

// 多路复用编解码标识
const (
	// MuxerYamux libp2p go-yamux 实现
	MuxerYamux = "/yamux/1.0.0"

	// MuxerYamuxHC hashicorp yamux 实现
	MuxerYamuxHC = "/yamux-hc/1.0.0"
)

// MuxerConfig 多路复用配置
type MuxerConfig struct {
	// Codecs 编解码偏好顺序，升级时按此顺序协商
	Codecs []string `json:"codecs"`

	// MaxStreamWindowSize 单流最大接收窗口
	MaxStreamWindowSize uint32 `json:"max_stream_window_size"`

	// EnableKeepAlive 是否发送会话保活
	EnableKeepAlive bool `json:"enable_keep_alive"`

	// KeepAliveInterval 保活间隔
	KeepAliveInterval Duration `json:"keep_alive_interval"`
}

// DefaultMuxerConfig 返回默认多路复用配置
func DefaultMuxerConfig() MuxerConfig {
	return MuxerConfig{
		Codecs:              []string{MuxerYamux, MuxerYamuxHC},
		MaxStreamWindowSize: 16 * 1024 * 1024,
		EnableKeepAlive:     true,
		KeepAliveInterval:   Duration(30 * time.Second),
	}
}

// Validate 验证多路复用配置
//
// 编解码列表可以为空，此时所有连接都以原始连接使用。
func (c MuxerConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Codecs))
	for _, codec := range c.Codecs {
		switch codec {
		case MuxerYamux, MuxerYamuxHC:
		default:
			return fmt.Errorf("unknown muxer codec %q", codec)
		}
		if _, ok := seen[codec]; ok {
			return fmt.Errorf("duplicate muxer codec %q", codec)
		}
		seen[codec] = struct{}{}
	}
	if c.MaxStreamWindowSize < 256*1024 {
		return errors.New("max stream window size must be at least 256KiB")
	}
	if c.EnableKeepAlive && c.KeepAliveInterval <= 0 {
		return errors.New("keep alive interval must be positive")
	}
	return nil
}
