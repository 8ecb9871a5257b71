package peerstore

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/peerstore")

// record 单个节点的记录
type record struct {
	info      *types.PeerInfo
	protocols []types.ProtocolID
	agent     string
}

// Peerstore 节点地址簿
type Peerstore struct {
	mu     sync.Mutex
	book   *lru.Cache[types.PeerID, *record]
	closed bool
}

// NewPeerstore 创建地址簿
//
// capacity 为最多记录的节点数量。
func NewPeerstore(capacity int) (*Peerstore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	book, err := lru.NewWithEvict(capacity, func(id types.PeerID, _ *record) {
		logger.Debug("淘汰节点记录", "peer", id.ShortString())
	})
	if err != nil {
		return nil, err
	}
	return &Peerstore{book: book}, nil
}

// getOrCreate 获取或创建节点记录（调用方持有锁）
func (ps *Peerstore) getOrCreate(id types.PeerID) *record {
	if r, ok := ps.book.Get(id); ok {
		return r
	}
	r := &record{info: types.NewPeerInfo(id)}
	ps.book.Add(id, r)
	return r
}

// ============================================================================
//                              地址
// ============================================================================

// AddAddrs 添加节点地址（去重，保持顺序）
func (ps *Peerstore) AddAddrs(id types.PeerID, addrs ...ma.Multiaddr) {
	if id.IsEmpty() || len(addrs) == 0 {
		return
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	ps.getOrCreate(id).info.AddAddrs(addrs...)
}

// SetAddrs 替换节点的全部地址
func (ps *Peerstore) SetAddrs(id types.PeerID, addrs ...ma.Multiaddr) {
	if id.IsEmpty() {
		return
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	r := ps.getOrCreate(id)
	r.info = types.NewPeerInfo(id, addrs...)
}

// Addrs 返回节点地址副本
func (ps *Peerstore) Addrs(id types.PeerID) []ma.Multiaddr {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	r, ok := ps.book.Get(id)
	if !ok {
		return nil
	}
	return r.info.Addrs()
}

// PeerInfo 返回节点信息副本
//
// 未知节点返回 ErrNotFound。
func (ps *Peerstore) PeerInfo(id types.PeerID) (*types.PeerInfo, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil, ErrClosed
	}
	r, ok := ps.book.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.ShortString())
	}
	return types.NewPeerInfo(id, r.info.Addrs()...), nil
}

// ============================================================================
//                              协议
// ============================================================================

// SetProtocols 记录节点支持的协议与代理版本
func (ps *Peerstore) SetProtocols(id types.PeerID, agent string, protocols ...types.ProtocolID) {
	if id.IsEmpty() {
		return
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	r := ps.getOrCreate(id)
	r.protocols = append([]types.ProtocolID(nil), protocols...)
	r.agent = agent
}

// Protocols 返回节点支持的协议
func (ps *Peerstore) Protocols(id types.PeerID) []types.ProtocolID {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	r, ok := ps.book.Get(id)
	if !ok {
		return nil
	}
	return append([]types.ProtocolID(nil), r.protocols...)
}

// SupportsProtocol 节点是否声明支持协议
func (ps *Peerstore) SupportsProtocol(id types.PeerID, proto types.ProtocolID) bool {
	for _, p := range ps.Protocols(id) {
		if p == proto {
			return true
		}
	}
	return false
}

// AgentVersion 返回节点的代理版本
func (ps *Peerstore) AgentVersion(id types.PeerID) string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if r, ok := ps.book.Get(id); ok {
		return r.agent
	}
	return ""
}

// ============================================================================
//                              管理
// ============================================================================

// Peers 返回所有已知节点（排序）
func (ps *Peerstore) Peers() []types.PeerID {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ids := ps.book.Keys()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len 返回已知节点数量
func (ps *Peerstore) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.book.Len()
}

// RemovePeer 删除节点记录
func (ps *Peerstore) RemovePeer(id types.PeerID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.book.Remove(id)
}

// Close 清空并关闭地址簿
func (ps *Peerstore) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return nil
	}
	ps.closed = true
	ps.book.Purge()
	return nil
}
