package swarm

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// Params Swarm 依赖参数
type Params struct {
	fx.In

	Config   *config.Config
	Identity *identity.Identity
	Registry *transport.Registry
	Router   *protocol.Router
	Muxers   []interfaces.StreamMuxer

	Peerstore *peerstore.Peerstore `optional:"true"`
	Tracer    *metrics.Tracer      `optional:"true"`

	LC fx.Lifecycle
}

// NewSwarmFromParams 从参数创建 Swarm
func NewSwarmFromParams(p Params) (*Swarm, error) {
	addrs, err := types.ParseAddrs(p.Config.ListenAddrs...)
	if err != nil {
		return nil, err
	}
	local := types.NewPeerInfo(p.Identity.ID(), addrs...)

	s, err := NewSwarm(local,
		WithPublicKey(p.Identity.PublicKey()),
		WithRegistry(p.Registry),
		WithRouter(p.Router),
		WithPeerstore(p.Peerstore),
		WithTracer(p.Tracer),
		WithNegotiateTimeout(p.Config.Swarm.NegotiateTimeout.Duration()),
		WithIdentifyTimeout(p.Config.Swarm.IdentifyTimeout.Duration()),
	)
	if err != nil {
		return nil, err
	}

	for _, m := range p.Muxers {
		s.Connection().AddStreamMuxer(m)
	}
	if p.Config.Swarm.EnableReuse {
		if err := s.Connection().Reuse(); err != nil {
			return nil, err
		}
	}

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return s.ListenAll()
		},
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

// Module Swarm 模块
var Module = fx.Module("swarm",
	fx.Provide(NewSwarmFromParams),
)
