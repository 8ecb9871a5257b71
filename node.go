package dep2p

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/internal/core/identity"
	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/swarm"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
)

var logger = log.Logger("dep2p")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota

	// StateRunning 运行中
	StateRunning

	// StateStopped 已关闭
	StateStopped
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// 生命周期超时
const (
	startTimeout = 30 * time.Second
	stopTimeout  = 10 * time.Second
)

// Node 连接群节点
//
// Node 是门面（Facade），持有 Fx 应用及其组装的 Swarm、地址簿与指标。
//
// 使用示例：
//
//	node, err := dep2p.New(ctx,
//	    dep2p.WithListenAddrs("/ip4/0.0.0.0/tcp/4001"),
//	    dep2p.WithReuse(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Node struct {
	// ────────────────────────────────────────────────────────────────────────
	// 配置和状态
	// ────────────────────────────────────────────────────────────────────────

	config *nodeConfig
	app    *fx.App

	// ────────────────────────────────────────────────────────────────────────
	// 核心组件（由 Fx 注入）
	// ────────────────────────────────────────────────────────────────────────

	identity  *identity.Identity
	swarm     *swarm.Swarm
	peerstore *peerstore.Peerstore
	tracer    *metrics.Tracer

	mu    sync.Mutex
	state NodeState
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建新节点
//
// 创建节点但不监听，需要调用 Start() 启动。
func New(_ context.Context, opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if err := applyLogConfig(cfg); err != nil {
		return nil, err
	}

	node := &Node{config: cfg}

	var err error
	node.app, err = buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return node, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := node.Start(ctx); err != nil {
		_ = node.Close()
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

func applyLogConfig(cfg *nodeConfig) error {
	level, err := log.ParseLevel(cfg.config.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return log.SetFormat(cfg.config.Log.Format)
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动节点
//
// 在每个启用的传输上监听配置的地址。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrNodeClosed
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	n.state = StateRunning
	logger.Info("节点已启动",
		"peer", n.ID().ShortString(),
		"addrs", len(n.swarm.LocalAddrs()))
	return nil
}

// Close 关闭节点并释放所有资源
//
// 关闭后不可重新启动。重复调用返回 nil。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateStopped {
		return nil
	}
	wasRunning := n.state == StateRunning
	n.state = StateStopped

	if !wasRunning {
		// 未启动时 OnStop 不会执行
		if n.swarm != nil {
			return n.swarm.Close()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("停止节点出错", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	logger.Info("节点已关闭")
	return nil
}

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// ID 返回节点 ID
func (n *Node) ID() PeerID {
	return n.identity.ID()
}

// ListenAddrs 返回监听地址（启动后为实际绑定的地址）
func (n *Node) ListenAddrs() []ma.Multiaddr {
	return n.swarm.LocalAddrs()
}

// Info 返回可供其他节点拨号的节点信息
func (n *Node) Info() *PeerInfo {
	return NewPeerInfo(n.ID(), n.ListenAddrs()...)
}

// Swarm 返回底层连接群
func (n *Node) Swarm() *swarm.Swarm {
	return n.swarm
}

// Peerstore 返回地址簿
func (n *Node) Peerstore() *peerstore.Peerstore {
	return n.peerstore
}

// MetricsHandler 返回 Prometheus 指标处理器
//
// 未启用指标时返回 nil。
func (n *Node) MetricsHandler() http.Handler {
	if n.tracer == nil {
		return nil
	}
	return n.tracer.Handler()
}

// ════════════════════════════════════════════════════════════════════════════
//                              协议
// ════════════════════════════════════════════════════════════════════════════

// Handle 注册协议处理器，重复注册时覆盖
func (n *Node) Handle(id ProtocolID, handler StreamHandler) {
	n.swarm.Handle(id, handler)
}

// RemoveHandler 移除协议处理器
func (n *Node) RemoveHandler(id ProtocolID) {
	n.swarm.RemoveHandler(id)
}

// Protocols 返回已注册的协议
func (n *Node) Protocols() []ProtocolID {
	return n.swarm.Protocols()
}

// ════════════════════════════════════════════════════════════════════════════
//                              拨号
// ════════════════════════════════════════════════════════════════════════════

// dialContext 附加配置的拨号超时
func (n *Node) dialContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, n.config.config.Transport.DialTimeout.Duration())
}

// Connect 预热拨号：建立连接但不打开流
func (n *Node) Connect(ctx context.Context, pi *PeerInfo) error {
	ctx, cancel := n.dialContext(ctx)
	defer cancel()
	return n.swarm.Connect(ctx, pi)
}

// Dial 拨号并协商协议
func (n *Node) Dial(ctx context.Context, pi *PeerInfo, proto ProtocolID) (Stream, error) {
	ctx, cancel := n.dialContext(ctx)
	defer cancel()
	return n.swarm.Dial(ctx, pi, proto)
}

// DialAsync 异步拨号
//
// 立即返回可写入的流，写入的数据在协商完成后按顺序发送；
// 错误通道恰好发送一次结果后关闭。
func (n *Node) DialAsync(ctx context.Context, pi *PeerInfo, proto ProtocolID) (Stream, <-chan error) {
	st, errCh := n.swarm.DialAsync(ctx, pi, proto)
	if st == nil {
		return nil, errCh
	}
	return st, errCh
}

// DialPeer 按 PeerID 拨号，地址取自地址簿
func (n *Node) DialPeer(ctx context.Context, id PeerID, proto ProtocolID) (Stream, error) {
	ctx, cancel := n.dialContext(ctx)
	defer cancel()
	return n.swarm.DialPeer(ctx, id, proto)
}

// AddAddrs 记录节点地址
func (n *Node) AddAddrs(id PeerID, addrs ...ma.Multiaddr) {
	n.swarm.AddAddrs(id, addrs...)
}

// Peers 返回有缓存连接的节点
func (n *Node) Peers() []PeerID {
	return n.swarm.Peers()
}
