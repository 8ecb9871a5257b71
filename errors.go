package dep2p

import (
	"errors"

	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/swarm"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ────────────────────────────────────────────────────────────────────────
	// 拨号与协商错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNoRouteToPeer 所有传输都无法连接到节点
	ErrNoRouteToPeer = swarm.ErrNoRouteToPeer

	// ErrMuxerUpgradeFailed 多路复用升级失败
	ErrMuxerUpgradeFailed = swarm.ErrMuxerUpgradeFailed

	// ErrNoAddresses 节点没有已知地址
	ErrNoAddresses = swarm.ErrNoAddresses

	// ErrDialToSelf 尝试拨号自己
	ErrDialToSelf = swarm.ErrDialToSelf

	// ErrSwarmClosed 连接群已关闭
	ErrSwarmClosed = swarm.ErrSwarmClosed

	// ErrProtocolNotSupported 对端不支持请求的协议
	ErrProtocolNotSupported = protocol.ErrProtocolNotSupported

	// ErrDuplicateTransportKey 传输键已注册
	ErrDuplicateTransportKey = transport.ErrDuplicateTransportKey
)
