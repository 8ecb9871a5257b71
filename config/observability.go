package config

import (
	"errors"
	"fmt"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// PeerstoreConfig 地址簿配置
type PeerstoreConfig struct {
	// Capacity 最多记录的节点数量，超出后淘汰最久未使用的节点
	Capacity int `json:"capacity"`
}

// DefaultPeerstoreConfig 返回默认地址簿配置
func DefaultPeerstoreConfig() PeerstoreConfig {
	return PeerstoreConfig{Capacity: 1024}
}

// Validate 验证地址簿配置
func (c PeerstoreConfig) Validate() error {
	if c.Capacity <= 0 {
		return errors.New("peerstore capacity must be positive")
	}
	return nil
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 是否注册 Prometheus 指标
	Enable bool `json:"enable"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enable: false}
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别：debug / info / warn / error
	Level string `json:"level"`

	// Format 日志格式：text / json
	Format string `json:"format"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	return nil
}

func validateListenAddrs(addrs []string) error {
	for _, s := range addrs {
		if _, err := ma.NewMultiaddr(s); err != nil {
			return fmt.Errorf("invalid listen addr %q: %w", s, err)
		}
	}
	return nil
}
