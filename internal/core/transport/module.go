package transport

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport/quic"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport/tcp"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport/websocket"
)

// 传输注册键
const (
	KeyTCP       = "tcp"
	KeyWebSocket = "websocket"
	KeyQUIC      = "quic"
)

// Params 模块输入依赖
type Params struct {
	fx.In

	Config   *config.Config
	Identity *identity.Identity
	LC       fx.Lifecycle
}

// NewFromConfig 按配置创建注册表
//
// 启用的传输按 TCP、WebSocket、QUIC 的顺序注册。
func NewFromConfig(cfg config.TransportConfig, id *identity.Identity) (*Registry, error) {
	r := NewRegistry()

	if cfg.EnableTCP {
		t := tcp.New(tcp.Config{
			KeepAlivePeriod: cfg.TCP.KeepAlivePeriod.Duration(),
			NoDelay:         cfg.TCP.NoDelay,
		})
		if err := r.Add(KeyTCP, t); err != nil {
			return nil, err
		}
	}

	if cfg.EnableWebSocket {
		t := websocket.New(websocket.Config{
			ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
			WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
			HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout.Duration(),
			EnableCompression: cfg.WebSocket.EnableCompression,
		})
		if err := r.Add(KeyWebSocket, t); err != nil {
			return nil, err
		}
	}

	if cfg.EnableQUIC {
		qc := quic.Config{
			MaxIdleTimeout:  cfg.QUIC.MaxIdleTimeout.Duration(),
			KeepAlivePeriod: cfg.QUIC.KeepAlivePeriod.Duration(),
		}
		if id != nil {
			qc.PrivateKey = id.PrivateKey()
		}
		t, err := quic.New(qc)
		if err != nil {
			return nil, err
		}
		if err := r.Add(KeyQUIC, t); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ProvideRegistry 提供传输注册表
//
// 停止时关闭所有传输。
func ProvideRegistry(p Params) (*Registry, error) {
	r, err := NewFromConfig(p.Config.Transport, p.Identity)
	if err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return r.CloseAll()
		},
	})
	return r, nil
}

// Module 传输模块
var Module = fx.Module("transport",
	fx.Provide(ProvideRegistry),
)
