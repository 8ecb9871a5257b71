package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// Identity 节点身份
type Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	id   types.PeerID
}

// Generate 生成新身份
func Generate() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成密钥失败: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey 从私钥创建身份
func FromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	pub := priv.Public().(ed25519.PublicKey)

	id, err := types.IDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &Identity{priv: priv, pub: pub, id: id}, nil
}

// ID 返回 PeerID
func (i *Identity) ID() types.PeerID { return i.id }

// PublicKey 返回公钥
func (i *Identity) PublicKey() ed25519.PublicKey { return i.pub }

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() ed25519.PrivateKey { return i.priv }

// Sign 对数据签名
func (i *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(i.priv, data)
}
