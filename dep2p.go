package dep2p

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "go-dep2p-swarm " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// PeerID 节点标识
	PeerID = types.PeerID

	// PeerInfo 节点 ID 与地址
	PeerInfo = types.PeerInfo

	// ProtocolID 协议标识
	ProtocolID = types.ProtocolID

	// Stream 双向字节流
	Stream = interfaces.Stream

	// StreamHandler 协议处理器
	StreamHandler = interfaces.StreamHandler
)

// NewPeerInfo 创建节点信息
func NewPeerInfo(id PeerID, addrs ...ma.Multiaddr) *PeerInfo {
	return types.NewPeerInfo(id, addrs...)
}

// ParsePeerInfo 从 PeerID 与 multiaddr 字符串创建节点信息
func ParsePeerInfo(id string, addrs ...string) (*PeerInfo, error) {
	pid, err := types.ParsePeerID(id)
	if err != nil {
		return nil, err
	}
	parsed, err := types.ParseAddrs(addrs...)
	if err != nil {
		return nil, err
	}
	return types.NewPeerInfo(pid, parsed...), nil
}
