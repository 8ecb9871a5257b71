package swarm

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/peerstore"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol/system/identify"
	"github.com/dep2p/go-dep2p-swarm/internal/core/transport"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/swarm")

// Swarm 连接群管理
type Swarm struct {
	// 本地节点，监听后地址原地更新为实际绑定地址
	local *types.PeerInfo
	pub   ed25519.PublicKey

	transports *transport.Registry
	router     *protocol.Router
	cache      *connCache

	// 依赖（可选）
	peerstore *peerstore.Peerstore
	tracer    *metrics.Tracer

	// 多路复用编解码，按注册顺序协商
	muxMu    sync.RWMutex
	muxers   []interfaces.StreamMuxer
	identify *identify.Service

	negotiateTimeout time.Duration
	identifyTimeout  time.Duration

	conn *Connection

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewSwarm 创建 Swarm
func NewSwarm(local *types.PeerInfo, opts ...Option) (*Swarm, error) {
	if local == nil || local.ID.IsEmpty() {
		return nil, ErrEmptyLocalPeer
	}

	s := &Swarm{
		local:            local,
		cache:            newConnCache(),
		negotiateTimeout: DefaultNegotiateTimeout,
		identifyTimeout:  DefaultIdentifyTimeout,
	}
	s.conn = &Connection{s: s}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.transports == nil {
		s.transports = transport.NewRegistry()
	}
	if s.router == nil {
		s.router = protocol.NewRouter(s.negotiateTimeout)
	}

	logger.Debug("创建 Swarm", "peer", local.ID.ShortString())
	return s, nil
}

// ============================================================================
//                              基本信息
// ============================================================================

// LocalPeer 返回本地节点 ID
func (s *Swarm) LocalPeer() types.PeerID {
	return s.local.ID
}

// LocalInfo 返回本地节点信息
func (s *Swarm) LocalInfo() *types.PeerInfo {
	return s.local
}

// LocalAddrs 返回本地地址（监听后为实际绑定地址）
func (s *Swarm) LocalAddrs() []ma.Multiaddr {
	return s.local.Addrs()
}

// Transport 返回传输注册表
func (s *Swarm) Transport() *transport.Registry {
	return s.transports
}

// Connection 返回连接升级设置
func (s *Swarm) Connection() *Connection {
	return s.conn
}

// Router 返回协议路由器
func (s *Swarm) Router() *protocol.Router {
	return s.router
}

// Peerstore 返回地址簿（可能为 nil）
func (s *Swarm) Peerstore() *peerstore.Peerstore {
	return s.peerstore
}

// ============================================================================
//                              协议处理
// ============================================================================

// Handle 注册协议处理器
//
// 同一协议重复注册时后注册的处理器生效。
func (s *Swarm) Handle(id types.ProtocolID, handler interfaces.StreamHandler) {
	s.router.Handle(id, func(st interfaces.Stream) {
		handler(s.tracer.MeterStream(st, id))
	})
}

// RemoveHandler 移除协议处理器
func (s *Swarm) RemoveHandler(id types.ProtocolID) {
	s.router.Remove(id)
}

// Protocols 返回已注册的协议
func (s *Swarm) Protocols() []types.ProtocolID {
	return s.router.Protocols()
}

// ============================================================================
//                              监听
// ============================================================================

// Listen 在本地地址上启动指定传输的监听
//
// 入站连接交给协议路由器。
func (s *Swarm) Listen(key string) error {
	if s.closed.Load() {
		return ErrSwarmClosed
	}
	return s.transports.Listen(key, s.local, s.handleConn)
}

// ListenAll 为每个已注册的传输启动监听
//
// 没有匹配本地地址的传输跳过。
func (s *Swarm) ListenAll() error {
	for _, key := range s.transports.Keys() {
		err := s.Listen(key)
		if errors.Is(err, transport.ErrNoListenAddrs) {
			logger.Debug("传输没有匹配的本地地址", "key", key)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// handleConn 入站原始连接处理
func (s *Swarm) handleConn(c interfaces.Conn) {
	if s.closed.Load() {
		_ = c.Close()
		return
	}
	logger.Debug("处理入站连接", "remote", c.RemoteMultiaddr())
	s.router.Dispatch(c)
}

// ============================================================================
//                              查询
// ============================================================================

// Peers 返回有缓存连接的节点
func (s *Swarm) Peers() []types.PeerID {
	return s.cache.peers()
}

// MuxedConn 返回节点的多路复用连接
func (s *Swarm) MuxedConn(id types.PeerID) (*MuxedEntry, bool) {
	return s.cache.getMuxed(id)
}

// HasRawConn 是否暂存了节点的原始连接
func (s *Swarm) HasRawConn(id types.PeerID) bool {
	return s.cache.hasRaw(id)
}

// AddAddrs 记录节点地址到地址簿
func (s *Swarm) AddAddrs(id types.PeerID, addrs ...ma.Multiaddr) {
	if s.peerstore != nil {
		s.peerstore.AddAddrs(id, addrs...)
	}
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭 Swarm
//
// 先关闭所有缓存的连接，再并发关闭所有传输；
// 所有传输确认关闭后才返回。
func (s *Swarm) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		var errs error
		if err := s.cache.closeAll(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close connections: %w", err))
		}
		if err := s.transports.CloseAll(); err != nil {
			errs = multierr.Append(errs, err)
		}
		s.closeErr = errs

		logger.Info("Swarm 已关闭", "peer", s.local.ID.ShortString())
	})
	return s.closeErr
}

// IsClosed 是否已关闭
func (s *Swarm) IsClosed() bool {
	return s.closed.Load()
}
