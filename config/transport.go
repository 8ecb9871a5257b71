package config

import (
	"errors"
	"time"
)

// TransportConfig 传输层配置
//
// 启用的传输按 TCP、WebSocket、QUIC 的顺序注册，
// 拨号时按注册顺序依次尝试。
type TransportConfig struct {
	// TCP 配置
	EnableTCP bool      `json:"enable_tcp"`
	TCP       TCPConfig `json:"tcp,omitempty"`

	// WebSocket 配置
	EnableWebSocket bool            `json:"enable_websocket"`
	WebSocket       WebSocketConfig `json:"websocket,omitempty"`

	// QUIC 配置
	EnableQUIC bool       `json:"enable_quic"`
	QUIC       QUICConfig `json:"quic,omitempty"`

	// DialTimeout 单次拨号（含协商）超时
	DialTimeout Duration `json:"dial_timeout"`
}

// TCPConfig TCP 传输配置
type TCPConfig struct {
	// KeepAlivePeriod TCP KeepAlive 周期，0 表示系统默认
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// NoDelay 是否禁用 Nagle 算法
	NoDelay bool `json:"no_delay"`
}

// WebSocketConfig WebSocket 传输配置
type WebSocketConfig struct {
	// ReadBufferSize 读缓冲区大小
	ReadBufferSize int `json:"read_buffer_size,omitempty"`

	// WriteBufferSize 写缓冲区大小
	WriteBufferSize int `json:"write_buffer_size,omitempty"`

	// HandshakeTimeout 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`

	// EnableCompression 是否启用压缩
	EnableCompression bool `json:"enable_compression"`
}

// QUICConfig QUIC 传输配置
type QUICConfig struct {
	// MaxIdleTimeout 最大空闲超时
	MaxIdleTimeout Duration `json:"max_idle_timeout"`

	// KeepAlivePeriod KeepAlive 周期，0 表示禁用
	KeepAlivePeriod Duration `json:"keep_alive_period"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableTCP: true,
		TCP: TCPConfig{
			KeepAlivePeriod: Duration(15 * time.Second),
			NoDelay:         true,
		},

		// 默认禁用：仅浏览器场景需要
		EnableWebSocket: false,
		WebSocket: WebSocketConfig{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: Duration(10 * time.Second),
		},

		EnableQUIC: true,
		QUIC: QUICConfig{
			MaxIdleTimeout:  Duration(30 * time.Second),
			KeepAlivePeriod: Duration(15 * time.Second),
		},

		DialTimeout: Duration(30 * time.Second),
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if !c.EnableTCP && !c.EnableWebSocket && !c.EnableQUIC {
		return errors.New("at least one transport must be enabled")
	}
	if c.EnableWebSocket && c.WebSocket.HandshakeTimeout <= 0 {
		return errors.New("websocket handshake timeout must be positive")
	}
	if c.EnableQUIC && c.QUIC.MaxIdleTimeout <= 0 {
		return errors.New("QUIC max idle timeout must be positive")
	}
	if c.DialTimeout <= 0 {
		return errors.New("dial timeout must be positive")
	}
	return nil
}
