package dep2p

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/swarm"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//
//	Identity → Transport → Muxer → Protocol → Peerstore → Metrics → Swarm
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 配置注入
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg.config),
	}
	if cfg.identity != nil {
		modules = append(modules, fx.Supply(fx.Annotated{
			Name:   "preset_identity",
			Target: cfg.identity,
		}))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		identity.Module,  // 身份管理
		transport.Module, // TCP/WebSocket/QUIC 传输
		muxer.Module,     // 多路复用编解码
		protocol.Module,  // 协议路由
		peerstore.Module, // 地址簿
		metrics.Module,   // 指标（未启用时为 nil）
		swarm.Module,     // 连接群
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Node 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectNodeComponents(node)))

	// ════════════════════════════════════════════════════════════════════════
	// 6. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// ════════════════════════════════════════════════════════════════════════════
// 组件注入辅助函数
// ════════════════════════════════════════════════════════════════════════════

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Identity  *identity.Identity
	Swarm     *swarm.Swarm
	Peerstore *peerstore.Peerstore
	Tracer    *metrics.Tracer `optional:"true"`
}

// injectNodeComponents 创建 Node 组件注入函数
func injectNodeComponents(node *Node) interface{} {
	return func(params nodeInjectParams) {
		node.identity = params.Identity
		node.swarm = params.Swarm
		node.peerstore = params.Peerstore
		node.tracer = params.Tracer
	}
}
