package config

import (
	"errors"
	"time"
)

// SwarmConfig 连接群配置
type SwarmConfig struct {
	// NegotiateTimeout 单次协议协商超时
	NegotiateTimeout Duration `json:"negotiate_timeout"`

	// IdentifyTimeout 入站多路复用连接的身份交换超时
	IdentifyTimeout Duration `json:"identify_timeout"`

	// EnableReuse 是否复用入站多路复用连接（启用 Identify）
	EnableReuse bool `json:"enable_reuse"`
}

// DefaultSwarmConfig 返回默认连接群配置
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		NegotiateTimeout: Duration(10 * time.Second),
		IdentifyTimeout:  Duration(10 * time.Second),
		EnableReuse:      true,
	}
}

// Validate 验证连接群配置
func (c SwarmConfig) Validate() error {
	if c.NegotiateTimeout <= 0 {
		return errors.New("negotiate timeout must be positive")
	}
	if c.EnableReuse && c.IdentifyTimeout <= 0 {
		return errors.New("identify timeout must be positive")
	}
	return nil
}
