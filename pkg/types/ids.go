package types

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	mh "github.com/multiformats/go-multihash"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerID 节点唯一标识符
//
// 派生算法：Base58(multihash(sha2-256, ed25519 公钥))。
// PeerID 可比较，直接作为所有按节点索引的缓存键。
type PeerID string

// EmptyPeerID 空节点 ID
const EmptyPeerID PeerID = ""

// IDFromPublicKey 从 ed25519 公钥派生 PeerID
func IDFromPublicKey(pub ed25519.PublicKey) (PeerID, error) {
	if len(pub) != ed25519.PublicKeySize {
		return EmptyPeerID, fmt.Errorf("%w: size %d", ErrInvalidPublicKey, len(pub))
	}
	digest, err := mh.Sum(pub, mh.SHA2_256, -1)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("hash public key: %w", err)
	}
	return PeerID(base58.Encode(digest)), nil
}

// ParsePeerID 解析并校验 PeerID 字符串
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrEmptyPeerID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	if _, err := mh.Decode(b); err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return PeerID(s), nil
}

// MatchesPublicKey 检查 PeerID 是否由给定公钥派生
func (id PeerID) MatchesPublicKey(pub ed25519.PublicKey) bool {
	derived, err := IDFromPublicKey(pub)
	if err != nil {
		return false
	}
	return derived == id
}

// String 返回 PeerID 的字符串表示
func (id PeerID) String() string {
	return string(id)
}

// ShortString 返回日志用的短格式：前8...后3
func (id PeerID) ShortString() string {
	s := string(id)
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "..." + s[len(s)-3:]
}

// IsEmpty 检查 PeerID 是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}
