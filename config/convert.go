package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保持默认值。
//
// 示例 JSON:
//
//	{
//	  "listen_addrs": ["/ip4/0.0.0.0/tcp/4001"],
//	  "transport": {"enable_quic": false},
//	  "swarm": {"negotiate_timeout": "5s"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cloned := *c
	cloned.ListenAddrs = append([]string(nil), c.ListenAddrs...)
	cloned.Muxer.Codecs = append([]string(nil), c.Muxer.Codecs...)
	return &cloned
}
