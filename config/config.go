// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 文件加载与保存。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Transport.EnableQUIC = true
//	cfg.Swarm.EnableReuse = true
//
//	// 从 JSON 加载（未出现的字段保持默认值）
//	cfg, err := config.LoadFile("swarm.json")
package config

import "errors"

// Config 是 swarm 节点的完整配置结构
//
// 配置按照功能模块组织：
//   - Identity: 身份和密钥管理
//   - ListenAddrs: 监听地址
//   - Transport: 传输协议（TCP/WebSocket/QUIC）
//   - Muxer: 多路复用编解码
//   - Swarm: 拨号协商与连接复用
//   - Peerstore / Metrics / Log: 辅助设施
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// ListenAddrs 监听地址（multiaddr 字符串）
	ListenAddrs []string `json:"listen_addrs"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport"`

	// Muxer 多路复用配置
	Muxer MuxerConfig `json:"muxer"`

	// Swarm 连接群配置
	Swarm SwarmConfig `json:"swarm"`

	// Peerstore 地址簿配置
	Peerstore PeerstoreConfig `json:"peerstore"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:    DefaultIdentityConfig(),
		ListenAddrs: DefaultListenAddrs(),
		Transport:   DefaultTransportConfig(),
		Muxer:       DefaultMuxerConfig(),
		Swarm:       DefaultSwarmConfig(),
		Peerstore:   DefaultPeerstoreConfig(),
		Metrics:     DefaultMetricsConfig(),
		Log:         DefaultLogConfig(),
	}
}

// DefaultListenAddrs 返回默认监听地址
//
// 端口 0 由传输层在监听时解析为实际端口。
func DefaultListenAddrs() []string {
	return []string{
		"/ip4/0.0.0.0/tcp/0",
		"/ip4/0.0.0.0/udp/0/quic-v1",
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := validateListenAddrs(c.ListenAddrs); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Muxer.Validate(); err != nil {
		return err
	}
	if err := c.Swarm.Validate(); err != nil {
		return err
	}
	if err := c.Peerstore.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
