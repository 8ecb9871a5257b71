package swarm

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var (
	// ErrSwarmClosed Swarm 已关闭
	ErrSwarmClosed = errors.New("swarm closed")

	// ErrEmptyLocalPeer 本地节点信息缺失
	ErrEmptyLocalPeer = errors.New("local peer is empty")

	// ErrNoRouteToPeer 所有传输都无法连接到节点
	ErrNoRouteToPeer = errors.New("no route to peer")

	// ErrNoTransports 没有注册任何传输
	ErrNoTransports = errors.New("no transports registered")

	// ErrMuxerUpgradeFailed 多路复用升级失败
	ErrMuxerUpgradeFailed = errors.New("muxer upgrade failed")

	// ErrNoMuxers 没有注册多路复用编解码
	ErrNoMuxers = errors.New("no stream muxers registered")

	// ErrNoPublicKey 启用 identify 需要本地公钥
	ErrNoPublicKey = errors.New("public key required for identify")

	// ErrPublicKeyMismatch 公钥与本地 PeerID 不符
	ErrPublicKeyMismatch = errors.New("public key does not match local peer id")

	// ErrNoAddresses 节点没有已知地址
	ErrNoAddresses = errors.New("no addresses for peer")

	// ErrDialToSelf 尝试拨号自己
	ErrDialToSelf = errors.New("dial to self attempted")
)

// DialError 拨号错误，聚合每个传输的失败原因
//
// errors.Is(err, ErrNoRouteToPeer) 为 true。
type DialError struct {
	Peer   types.PeerID
	Errors []error
}

func (e *DialError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("failed to dial %s: %v", e.Peer.ShortString(), ErrNoRouteToPeer)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("failed to dial %s: %v: %s", e.Peer.ShortString(), ErrNoRouteToPeer, strings.Join(msgs, "; "))
}

// Is 匹配 ErrNoRouteToPeer
func (e *DialError) Is(target error) bool {
	return target == ErrNoRouteToPeer
}

// Unwrap 返回各传输的错误
func (e *DialError) Unwrap() []error {
	return multierr.Errors(multierr.Combine(e.Errors...))
}
