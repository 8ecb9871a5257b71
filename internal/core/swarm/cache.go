package swarm

import (
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// ============================================================================
//                              缓存条目
// ============================================================================

// MuxedEntry 多路复用连接缓存条目
//
// Conn 仅用于读取地址信息，升级后不再直接读写。
type MuxedEntry struct {
	Muxer interfaces.MuxedConn
	Conn  interfaces.Conn
	Codec string
}

// rawEntry 预热后未能升级的原始连接
//
// sel 记录连接上已开始的协商会话。
type rawEntry struct {
	conn interfaces.Conn
	sel  *protocol.Selector
}

// ============================================================================
//                              connCache
// ============================================================================

// connCache 连接缓存
//
// raw 条目是一次性的：由下一次拨号取走。muxed 每个节点最多一个。
// live 记录所有存活的多路复用连接（包括未完成 identify 的入站连接），
// 关闭时统一释放。
type connCache struct {
	mu     sync.Mutex
	raw    map[types.PeerID]*rawEntry
	muxed  map[types.PeerID]*MuxedEntry
	live   map[interfaces.MuxedConn]struct{}
	closed bool
}

func newConnCache() *connCache {
	return &connCache{
		raw:   make(map[types.PeerID]*rawEntry),
		muxed: make(map[types.PeerID]*MuxedEntry),
		live:  make(map[interfaces.MuxedConn]struct{}),
	}
}

// claimRaw 取走原始连接
func (c *connCache) claimRaw(id types.PeerID) (*rawEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.raw[id]
	if ok {
		delete(c.raw, id)
	}
	return e, ok
}

// putRaw 暂存原始连接
//
// 已关闭或已有条目时返回 false，调用方负责关闭连接。
func (c *connCache) putRaw(id types.PeerID, e *rawEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if _, exists := c.raw[id]; exists {
		return false
	}
	c.raw[id] = e
	return true
}

// hasRaw 是否有暂存的原始连接
func (c *connCache) hasRaw(id types.PeerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.raw[id]
	return ok
}

// getMuxed 获取存活的多路复用连接
//
// 已关闭的条目在查询时顺便移除。
func (c *connCache) getMuxed(id types.PeerID) (*MuxedEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.muxed[id]
	if !ok {
		return nil, false
	}
	if e.Muxer.IsClosed() {
		delete(c.muxed, id)
		return nil, false
	}
	return e, true
}

// putMuxed 缓存多路复用连接
//
// 已有存活条目时保留原条目并返回 (原条目, true)。
// 缓存已关闭时返回 (nil, false)。
func (c *connCache) putMuxed(id types.PeerID, e *MuxedEntry) (*MuxedEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false
	}
	if old, ok := c.muxed[id]; ok && !old.Muxer.IsClosed() {
		return old, true
	}
	c.muxed[id] = e
	return e, false
}

// track 登记存活的多路复用连接
//
// 缓存已关闭时返回 false。
func (c *connCache) track(m interfaces.MuxedConn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.live[m] = struct{}{}
	return true
}

// evictMuxer 移除多路复用连接及指向它的缓存条目
//
// 返回被移除条目对应的节点。
func (c *connCache) evictMuxer(m interfaces.MuxedConn) []types.PeerID {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.live, m)

	var evicted []types.PeerID
	for id, e := range c.muxed {
		if e.Muxer == m {
			delete(c.muxed, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// peers 返回有缓存连接的节点（排序）
func (c *connCache) peers() []types.PeerID {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[types.PeerID]struct{}, len(c.muxed)+len(c.raw))
	for id, e := range c.muxed {
		if !e.Muxer.IsClosed() {
			seen[id] = struct{}{}
		}
	}
	for id := range c.raw {
		seen[id] = struct{}{}
	}

	out := make([]types.PeerID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// closeAll 关闭所有缓存的连接，之后的写入全部拒绝
func (c *connCache) closeAll() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	muxers := make([]interfaces.MuxedConn, 0, len(c.live))
	for m := range c.live {
		muxers = append(muxers, m)
	}
	raws := make([]*rawEntry, 0, len(c.raw))
	for _, e := range c.raw {
		raws = append(raws, e)
	}
	c.live = make(map[interfaces.MuxedConn]struct{})
	c.muxed = make(map[types.PeerID]*MuxedEntry)
	c.raw = make(map[types.PeerID]*rawEntry)
	c.mu.Unlock()

	var errs error
	for _, m := range muxers {
		errs = multierr.Append(errs, m.Close())
	}
	for _, e := range raws {
		errs = multierr.Append(errs, e.conn.Close())
	}
	return errs
}
