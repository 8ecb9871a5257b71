package metrics

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
)

// Params 模块输入依赖
type Params struct {
	fx.In

	Config *config.Config
}

// ProvideTracer 提供指标记录器
//
// 未启用指标时返回 nil。
func ProvideTracer(p Params) (*Tracer, error) {
	if !p.Config.Metrics.Enable {
		return nil, nil
	}
	return NewTracer(nil)
}

// Module 指标模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideTracer),
)
