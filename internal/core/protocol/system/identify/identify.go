package identify

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("protocol/identify")

const (
	// ProtocolID Identify 协议 ID
	ProtocolID = "/ipfs/id/1.0.0"

	// AgentVersion 代理版本
	AgentVersion = "go-dep2p-swarm/1.0.0"

	// ProtocolVersion 协议版本
	ProtocolVersion = "ipfs/0.1.0"

	// DefaultTimeout 默认交换超时
	DefaultTimeout = 10 * time.Second
)

// ============================================================================
//                              Service 服务端
// ============================================================================

// Service Identify 服务
//
// 响应对端的 identify 请求，回复本地节点信息。
type Service struct {
	local     *types.PeerInfo
	pub       ed25519.PublicKey
	protocols func() []types.ProtocolID

	mu       sync.RWMutex
	observed ma.Multiaddr
}

// NewService 创建 Identify 服务
//
// protocols 在每次回复时调用，返回当前注册的协议列表；可为 nil。
func NewService(local *types.PeerInfo, pub ed25519.PublicKey, protocols func() []types.ProtocolID) *Service {
	return &Service{
		local:     local,
		pub:       pub,
		protocols: protocols,
	}
}

// LocalMessage 构建本地节点的 Message
func (s *Service) LocalMessage() *Message {
	msg := &Message{
		PeerID:          s.local.ID.String(),
		PublicKey:       base64.StdEncoding.EncodeToString(s.pub),
		AgentVersion:    AgentVersion,
		ProtocolVersion: ProtocolVersion,
	}
	for _, a := range s.local.Addrs() {
		msg.ListenAddrs = append(msg.ListenAddrs, a.String())
	}
	if s.protocols != nil {
		msg.Protocols = append(msg.Protocols, s.protocols()...)
	}
	return msg
}

// ObservedAddr 返回最近一次由对端观察到的本地地址
func (s *Service) ObservedAddr() ma.Multiaddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observed
}

// Handler 协议处理器
//
// 读取请求，记录观察地址，回复本地 Message。
func (s *Service) Handler(stream interfaces.Stream) {
	defer stream.Close()
	_ = stream.SetDeadline(time.Now().Add(DefaultTimeout))

	var req request
	if err := readFrame(stream, &req); err != nil {
		logger.Debug("读取 identify 请求失败", "error", err)
		return
	}

	if req.ObservedAddr != "" {
		if addr, err := ma.NewMultiaddr(req.ObservedAddr); err == nil {
			s.mu.Lock()
			s.observed = addr
			s.mu.Unlock()
			logger.Debug("对端观察到的本地地址", "addr", addr)
		}
	}

	if err := writeFrame(stream, s.LocalMessage()); err != nil {
		logger.Debug("发送 identify 响应失败", "error", err)
	}
}

// ============================================================================
//                              Exec 客户端
// ============================================================================

// Exec 在多路复用连接上执行身份交换
//
// 打开子流并协商 ProtocolID，发送携带 backing 远端地址的请求，
// 读取并校验对端 Message。所有失败都包装为 ErrIdentifyFailed。
// backing 仅用于读取地址，可为 nil。timeout <= 0 时使用 DefaultTimeout。
func Exec(ctx context.Context, muxed interfaces.MuxedConn, backing interfaces.Conn, timeout time.Duration) (*Message, types.PeerID, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stream, err := muxed.OpenStream(ctx)
	if err != nil {
		return nil, types.EmptyPeerID, fmt.Errorf("%w: open stream: %w", ErrIdentifyFailed, err)
	}
	defer stream.Close()

	deadline, _ := ctx.Deadline()
	_ = stream.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	if err := protocol.SelectProto(stream, ProtocolID, 0); err != nil {
		return nil, types.EmptyPeerID, fmt.Errorf("%w: %w", ErrIdentifyFailed, err)
	}

	var req request
	if backing != nil && backing.RemoteMultiaddr() != nil {
		req.ObservedAddr = backing.RemoteMultiaddr().String()
	}
	if err := writeFrame(stream, &req); err != nil {
		return nil, types.EmptyPeerID, fmt.Errorf("%w: send request: %w", ErrIdentifyFailed, err)
	}

	var msg Message
	if err := readFrame(stream, &msg); err != nil {
		return nil, types.EmptyPeerID, fmt.Errorf("%w: read message: %w", ErrIdentifyFailed, err)
	}

	id, _, err := msg.Verify()
	if err != nil {
		return nil, types.EmptyPeerID, fmt.Errorf("%w: %w", ErrIdentifyFailed, err)
	}

	logger.Debug("identify 完成",
		"peer", id.ShortString(),
		"addrs", len(msg.ListenAddrs),
		"protocols", len(msg.Protocols),
		"agent", msg.AgentVersion)
	return &msg, id, nil
}
