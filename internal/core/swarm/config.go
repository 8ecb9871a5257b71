package swarm

import (
	"crypto/ed25519"
	"time"

	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
)

// 默认超时
const (
	DefaultNegotiateTimeout = protocol.DefaultNegotiateTimeout
	DefaultIdentifyTimeout  = 10 * time.Second
)

// Option Swarm 选项函数
type Option func(*Swarm) error

// WithRegistry 使用已配置的传输注册表
func WithRegistry(r *transport.Registry) Option {
	return func(s *Swarm) error {
		if r != nil {
			s.transports = r
		}
		return nil
	}
}

// WithRouter 使用已有的协议路由器
func WithRouter(r *protocol.Router) Option {
	return func(s *Swarm) error {
		if r != nil {
			s.router = r
		}
		return nil
	}
}

// WithPeerstore 设置地址簿
//
// identify 结果写入地址簿，DialPeer 从中读取地址。
func WithPeerstore(ps *peerstore.Peerstore) Option {
	return func(s *Swarm) error {
		s.peerstore = ps
		return nil
	}
}

// WithTracer 设置指标记录器
func WithTracer(t *metrics.Tracer) Option {
	return func(s *Swarm) error {
		s.tracer = t
		return nil
	}
}

// WithPublicKey 设置本地公钥（identify 使用）
func WithPublicKey(pub ed25519.PublicKey) Option {
	return func(s *Swarm) error {
		if !s.local.ID.MatchesPublicKey(pub) {
			return ErrPublicKeyMismatch
		}
		s.pub = pub
		return nil
	}
}

// WithNegotiateTimeout 设置单次协议协商超时
func WithNegotiateTimeout(d time.Duration) Option {
	return func(s *Swarm) error {
		s.negotiateTimeout = d
		return nil
	}
}

// WithIdentifyTimeout 设置 identify 超时
func WithIdentifyTimeout(d time.Duration) Option {
	return func(s *Swarm) error {
		s.identifyTimeout = d
		return nil
	}
}
