package protocol

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
)

// Params 模块输入依赖
type Params struct {
	fx.In

	Config *config.Config
}

// ProvideRouter 提供协议路由器
func ProvideRouter(p Params) *Router {
	return NewRouter(p.Config.Swarm.NegotiateTimeout.Duration())
}

// Module 协议模块
var Module = fx.Module("protocol",
	fx.Provide(ProvideRouter),
)
