package types

import (
	"fmt"
	"strings"
	"sync"

	ma "github.com/multiformats/go-multiaddr"
)

// PeerInfo 节点信息
//
// 持有节点 ID 与有序的地址集合。地址集合可能在监听端口解析后被原地更新，
// 因此由互斥锁保护，读取时返回副本。
type PeerInfo struct {
	ID PeerID

	mu    sync.RWMutex
	addrs []ma.Multiaddr
}

// NewPeerInfo 创建节点信息
func NewPeerInfo(id PeerID, addrs ...ma.Multiaddr) *PeerInfo {
	pi := &PeerInfo{ID: id}
	pi.AddAddrs(addrs...)
	return pi
}

// Addrs 返回地址副本
func (pi *PeerInfo) Addrs() []ma.Multiaddr {
	pi.mu.RLock()
	defer pi.mu.RUnlock()

	out := make([]ma.Multiaddr, len(pi.addrs))
	copy(out, pi.addrs)
	return out
}

// AddAddrs 追加地址（重复地址忽略）
func (pi *PeerInfo) AddAddrs(addrs ...ma.Multiaddr) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	for _, a := range addrs {
		if a == nil || containsAddr(pi.addrs, a) {
			continue
		}
		pi.addrs = append(pi.addrs, a)
	}
}

// ReplaceAddrs 原地替换地址
//
// old[i] 所在的位置被 replacement[i] 取代，保持地址顺序；
// replacement 多出的部分追加到末尾，不在集合中的 old 地址忽略。
func (pi *PeerInfo) ReplaceAddrs(old, replacement []ma.Multiaddr) {
	pi.mu.Lock()
	defer pi.mu.Unlock()

	n := len(old)
	if len(replacement) < n {
		n = len(replacement)
	}
	for i := 0; i < n; i++ {
		idx := indexAddr(pi.addrs, old[i])
		if idx < 0 {
			pi.addrs = append(pi.addrs, replacement[i])
			continue
		}
		pi.addrs[idx] = replacement[i]
	}
	for _, a := range replacement[n:] {
		if !containsAddr(pi.addrs, a) {
			pi.addrs = append(pi.addrs, a)
		}
	}
}

// String 返回 "id: [addr ...]" 格式
func (pi *PeerInfo) String() string {
	addrs := pi.Addrs()
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.String()
	}
	return fmt.Sprintf("%s: [%s]", pi.ID.ShortString(), strings.Join(strs, " "))
}

// ParseAddrs 解析多个 multiaddr 字符串
func ParseAddrs(strs ...string) ([]ma.Multiaddr, error) {
	out := make([]ma.Multiaddr, 0, len(strs))
	for _, s := range strs {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("parse multiaddr %q: %w", s, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func indexAddr(addrs []ma.Multiaddr, a ma.Multiaddr) int {
	for i, x := range addrs {
		if x.Equal(a) {
			return i
		}
	}
	return -1
}

func containsAddr(addrs []ma.Multiaddr, a ma.Multiaddr) bool {
	return indexAddr(addrs, a) >= 0
}
