package peerstore

import (
	"testing"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

func newTestPeerstore(t *testing.T, capacity int) *Peerstore {
	t.Helper()
	ps, err := NewPeerstore(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

func TestNewPeerstore_InvalidCapacity(t *testing.T) {
	_, err := NewPeerstore(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

// TestPeerstore_AddAddrs 添加地址去重并保持顺序
func TestPeerstore_AddAddrs(t *testing.T) {
	ps := newTestPeerstore(t, 8)
	id := types.PeerID("peer1")

	a1 := ma.StringCast("/ip4/127.0.0.1/tcp/4001")
	a2 := ma.StringCast("/ip4/127.0.0.1/udp/4001/quic-v1")
	ps.AddAddrs(id, a1)
	ps.AddAddrs(id, a2, a1)

	addrs := ps.Addrs(id)
	require.Len(t, addrs, 2)
	assert.True(t, addrs[0].Equal(a1))
	assert.True(t, addrs[1].Equal(a2))

	info, err := ps.PeerInfo(id)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Len(t, info.Addrs(), 2)

	t.Log("✅ 地址去重并保持顺序")
}

// TestPeerstore_SetAddrs 替换地址
func TestPeerstore_SetAddrs(t *testing.T) {
	ps := newTestPeerstore(t, 8)
	id := types.PeerID("peer1")

	ps.AddAddrs(id, ma.StringCast("/ip4/127.0.0.1/tcp/4001"))
	ps.SetAddrs(id, ma.StringCast("/ip4/127.0.0.1/tcp/5001"))

	addrs := ps.Addrs(id)
	require.Len(t, addrs, 1)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/5001", addrs[0].String())
}

// TestPeerstore_PeerInfoNotFound 未知节点
func TestPeerstore_PeerInfoNotFound(t *testing.T) {
	ps := newTestPeerstore(t, 8)

	_, err := ps.PeerInfo("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, ps.Addrs("unknown"))
}

// TestPeerstore_Protocols 记录协议与代理版本
func TestPeerstore_Protocols(t *testing.T) {
	ps := newTestPeerstore(t, 8)
	id := types.PeerID("peer1")

	ps.SetProtocols(id, "agent/1.0", "/echo/1.0.0", "/ipfs/id/1.0.0")

	assert.Equal(t, []types.ProtocolID{"/echo/1.0.0", "/ipfs/id/1.0.0"}, ps.Protocols(id))
	assert.True(t, ps.SupportsProtocol(id, "/echo/1.0.0"))
	assert.False(t, ps.SupportsProtocol(id, "/chat/1.0.0"))
	assert.Equal(t, "agent/1.0", ps.AgentVersion(id))
}

// TestPeerstore_Evict 超出容量淘汰最久未使用的节点
func TestPeerstore_Evict(t *testing.T) {
	ps := newTestPeerstore(t, 2)
	addr := ma.StringCast("/ip4/127.0.0.1/tcp/4001")

	ps.AddAddrs("a", addr)
	ps.AddAddrs("b", addr)
	_ = ps.Addrs("a")
	ps.AddAddrs("c", addr)

	assert.Equal(t, 2, ps.Len())
	assert.Equal(t, []types.PeerID{"a", "c"}, ps.Peers())

	t.Log("✅ LRU 淘汰最久未使用的节点")
}

// TestPeerstore_Close 关闭后清空且忽略写入
func TestPeerstore_Close(t *testing.T) {
	ps := newTestPeerstore(t, 8)
	id := types.PeerID("peer1")
	ps.AddAddrs(id, ma.StringCast("/ip4/127.0.0.1/tcp/4001"))

	require.NoError(t, ps.Close())
	require.NoError(t, ps.Close())

	ps.AddAddrs(id, ma.StringCast("/ip4/127.0.0.1/tcp/4001"))
	assert.Equal(t, 0, ps.Len())
	_, err := ps.PeerInfo(id)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPeerstore_RemovePeer(t *testing.T) {
	ps := newTestPeerstore(t, 8)
	ps.AddAddrs("peer1", ma.StringCast("/ip4/127.0.0.1/tcp/4001"))
	ps.RemovePeer("peer1")
	assert.Empty(t, ps.Peers())
}
