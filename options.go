package dep2p

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
)

// Option 节点配置选项函数
type Option func(*nodeConfig) error

// nodeConfig 节点构建配置
type nodeConfig struct {
	// config 组件配置
	config *config.Config

	// identity 直接注入的身份，优先于密钥文件
	identity *identity.Identity

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{config: config.NewConfig()}
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 之后的选项在该配置的副本上继续修改。
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		c.config = cfg.Clone()
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(c *nodeConfig) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		c.config = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              身份与地址
// ════════════════════════════════════════════════════════════════════════════

// WithIdentity 使用指定的 Ed25519 私钥
func WithIdentity(priv ed25519.PrivateKey) Option {
	return func(c *nodeConfig) error {
		id, err := identity.FromPrivateKey(priv)
		if err != nil {
			return fmt.Errorf("invalid identity: %w", err)
		}
		c.identity = id
		return nil
	}
}

// WithIdentityFile 从密钥文件加载身份，文件不存在时生成
func WithIdentityFile(path string) Option {
	return func(c *nodeConfig) error {
		c.config.Identity = c.config.Identity.WithKeyFile(path)
		c.config.Identity.AutoGenerate = true
		return nil
	}
}

// WithListenAddrs 设置监听地址（multiaddr 字符串）
//
// 端口 0 在监听时解析为实际端口。
func WithListenAddrs(addrs ...string) Option {
	return func(c *nodeConfig) error {
		c.config.ListenAddrs = append([]string(nil), addrs...)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输与多路复用
// ════════════════════════════════════════════════════════════════════════════

// WithTransports 设置启用的传输（"tcp"、"websocket"、"quic"）
//
// 注册顺序固定为 TCP、WebSocket、QUIC。
func WithTransports(keys ...string) Option {
	return func(c *nodeConfig) error {
		t := &c.config.Transport
		t.EnableTCP, t.EnableWebSocket, t.EnableQUIC = false, false, false
		for _, k := range keys {
			switch k {
			case "tcp":
				t.EnableTCP = true
			case "websocket", "ws":
				t.EnableWebSocket = true
			case "quic":
				t.EnableQUIC = true
			default:
				return fmt.Errorf("unknown transport %q", k)
			}
		}
		return nil
	}
}

// WithMuxers 设置多路复用编解码偏好顺序
//
// 不传参数时禁用多路复用，所有连接以原始连接使用。
func WithMuxers(codecs ...string) Option {
	return func(c *nodeConfig) error {
		c.config.Muxer.Codecs = append([]string(nil), codecs...)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              连接群
// ════════════════════════════════════════════════════════════════════════════

// WithReuse 设置是否复用入站多路复用连接
func WithReuse(enable bool) Option {
	return func(c *nodeConfig) error {
		c.config.Swarm.EnableReuse = enable
		return nil
	}
}

// WithNegotiateTimeout 设置协议协商超时
func WithNegotiateTimeout(d time.Duration) Option {
	return func(c *nodeConfig) error {
		if d <= 0 {
			return errors.New("negotiate timeout must be positive")
		}
		c.config.Swarm.NegotiateTimeout = config.Duration(d)
		return nil
	}
}

// WithDialTimeout 设置单次拨号超时
func WithDialTimeout(d time.Duration) Option {
	return func(c *nodeConfig) error {
		if d <= 0 {
			return errors.New("dial timeout must be positive")
		}
		c.config.Transport.DialTimeout = config.Duration(d)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              辅助设施
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 设置是否记录 Prometheus 指标
func WithMetrics(enable bool) Option {
	return func(c *nodeConfig) error {
		c.config.Metrics.Enable = enable
		return nil
	}
}

// WithPeerstoreCapacity 设置地址簿容量
func WithPeerstoreCapacity(n int) Option {
	return func(c *nodeConfig) error {
		c.config.Peerstore.Capacity = n
		return nil
	}
}

// WithLogLevel 设置日志级别（debug / info / warn / error）
func WithLogLevel(level string) Option {
	return func(c *nodeConfig) error {
		c.config.Log.Level = level
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
