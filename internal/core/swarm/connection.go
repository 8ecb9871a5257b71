package swarm

import (
	"context"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol/system/identify"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// Connection 连接升级设置
type Connection struct {
	s *Swarm
}

// AddStreamMuxer 注册多路复用编解码
//
// 拨号时按注册顺序协商；同时注册为入站协议，对端选择后在该连接上建立服务端会话。
// 同一编解码重复注册时替换原实现，保持原有顺序。
func (c *Connection) AddStreamMuxer(m interfaces.StreamMuxer) {
	s := c.s

	s.muxMu.Lock()
	replaced := false
	for i, existing := range s.muxers {
		if existing.ID() == m.ID() {
			s.muxers[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		s.muxers = append(s.muxers, m)
	}
	s.muxMu.Unlock()

	s.router.Handle(m.ID(), s.muxerHandler(m))
	logger.Debug("注册多路复用编解码", "codec", m.ID())
}

// StreamMuxers 按注册顺序返回编解码 ID
func (c *Connection) StreamMuxers() []string {
	muxers := c.s.streamMuxers()
	out := make([]string, 0, len(muxers))
	for _, m := range muxers {
		out = append(out, m.ID())
	}
	return out
}

// Reuse 启用连接复用
//
// 注册 identify 协议；此后每个入站多路复用连接都会执行 identify，
// 成功后按对端 PeerID 缓存，供本地拨号复用。
func (c *Connection) Reuse() error {
	s := c.s
	if s.pub == nil {
		return ErrNoPublicKey
	}

	svc := identify.NewService(s.local, s.pub, s.router.Protocols)

	s.muxMu.Lock()
	s.identify = svc
	s.muxMu.Unlock()

	s.router.Handle(identify.ProtocolID, svc.Handler)
	logger.Debug("启用连接复用")
	return nil
}

// ReuseEnabled 是否已启用连接复用
func (c *Connection) ReuseEnabled() bool {
	return c.s.identifyService() != nil
}

// ObservedAddr 返回对端观察到的本地地址（需启用连接复用）
func (c *Connection) ObservedAddr() ma.Multiaddr {
	svc := c.s.identifyService()
	if svc == nil {
		return nil
	}
	return svc.ObservedAddr()
}

func (s *Swarm) streamMuxers() []interfaces.StreamMuxer {
	s.muxMu.RLock()
	defer s.muxMu.RUnlock()

	out := make([]interfaces.StreamMuxer, len(s.muxers))
	copy(out, s.muxers)
	return out
}

func (s *Swarm) identifyService() *identify.Service {
	s.muxMu.RLock()
	defer s.muxMu.RUnlock()
	return s.identify
}

// ============================================================================
//                              多路复用会话
// ============================================================================

// muxerHandler 入站编解码处理器
//
// 在已协商的原始连接上建立服务端会话，启用复用时执行 identify。
func (s *Swarm) muxerHandler(m interfaces.StreamMuxer) interfaces.StreamHandler {
	return func(st interfaces.Stream) {
		conn, ok := st.(interfaces.Conn)
		if !ok {
			// 只能在原始连接上升级
			logger.Debug("拒绝在子流上升级多路复用", "codec", m.ID())
			_ = st.Close()
			return
		}

		mc, err := m.NewConn(conn, true)
		s.tracer.MuxerUpgrade(m.ID(), err)
		if err != nil {
			logger.Warn("创建服务端多路复用会话失败", "codec", m.ID(), "error", err)
			_ = conn.Close()
			return
		}

		entry := &MuxedEntry{Muxer: mc, Conn: conn, Codec: m.ID()}
		if !s.adoptMuxer(entry) {
			return
		}
		logger.Debug("入站多路复用会话已建立", "codec", m.ID(), "remote", conn.RemoteMultiaddr())

		if s.identifyService() != nil {
			go s.identifyInbound(entry)
		}
	}
}

// adoptMuxer 登记会话并启动接受循环与关闭监视
//
// Swarm 已关闭时关闭会话并返回 false。
func (s *Swarm) adoptMuxer(e *MuxedEntry) bool {
	if !s.cache.track(e.Muxer) {
		_ = e.Muxer.Close()
		return false
	}

	go s.acceptLoop(e.Muxer)
	go func() {
		<-e.Muxer.CloseChan()
		for _, id := range s.cache.evictMuxer(e.Muxer) {
			logger.Debug("多路复用会话关闭，移出缓存", "peer", id.ShortString())
		}
	}()
	return true
}

// acceptLoop 将对端打开的子流交给协议路由器
func (s *Swarm) acceptLoop(mc interfaces.MuxedConn) {
	for {
		st, err := mc.AcceptStream()
		if err != nil {
			return
		}
		go s.router.Dispatch(st)
	}
}

// identifyInbound 对入站会话执行 identify，成功后缓存
func (s *Swarm) identifyInbound(e *MuxedEntry) {
	msg, id, err := identify.Exec(context.Background(), e.Muxer, e.Conn, s.identifyTimeout)
	s.tracer.IdentifyCompleted(err)
	if err != nil {
		logger.Debug("identify 失败", "remote", e.Conn.RemoteMultiaddr(), "error", err)
		return
	}
	if id == s.local.ID {
		logger.Warn("identify 返回本地节点 ID，忽略", "remote", e.Conn.RemoteMultiaddr())
		return
	}

	if s.peerstore != nil {
		s.peerstore.AddAddrs(id, msg.Addrs()...)
		s.peerstore.SetProtocols(id, msg.AgentVersion, msg.Protocols...)
	}

	if _, existing := s.cache.putMuxed(id, e); existing {
		logger.Debug("节点已有多路复用连接，入站会话不缓存", "peer", id.ShortString())
		return
	}
	logger.Debug("入站会话已按节点缓存", "peer", id.ShortString(), "codec", e.Codec)
}
