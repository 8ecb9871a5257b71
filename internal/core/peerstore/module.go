package peerstore

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
)

// Params 模块输入依赖
type Params struct {
	fx.In

	Config *config.Config
	LC     fx.Lifecycle
}

// ProvidePeerstore 提供地址簿
func ProvidePeerstore(p Params) (*Peerstore, error) {
	ps, err := NewPeerstore(p.Config.Peerstore.Capacity)
	if err != nil {
		return nil, err
	}

	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return ps.Close()
		},
	})
	return ps, nil
}

// Module 地址簿模块
var Module = fx.Module("peerstore",
	fx.Provide(ProvidePeerstore),
)
