package types

import "errors"

var (
	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer id")

	// ErrInvalidPeerID 无效的节点 ID（不是 Base58 编码的 multihash）
	ErrInvalidPeerID = errors.New("invalid peer id")

	// ErrInvalidPublicKey 无效的公钥
	ErrInvalidPublicKey = errors.New("invalid public key")
)
