package swarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-dep2p-swarm/internal/core/deferred"
	"github.com/dep2p/go-dep2p-swarm/internal/core/metrics"
	"github.com/dep2p/go-dep2p-swarm/internal/core/protocol"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// ============================================================================
//                              拨号状态
// ============================================================================

// dialState 拨号状态
type dialState int

const (
	stateCacheCheck dialState = iota
	stateDialing
	stateMuxerUpgrade
	stateProtocolHandshake
	stateDone
	stateFailed
)

func (st dialState) String() string {
	switch st {
	case stateCacheCheck:
		return "CacheCheck"
	case stateDialing:
		return "Dialing"
	case stateMuxerUpgrade:
		return "MuxerUpgrade"
	case stateProtocolHandshake:
		return "ProtocolHandshake"
	case stateDone:
		return "Done"
	case stateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("dialState(%d)", int(st))
	}
}

// ============================================================================
//                              dialJob
// ============================================================================

// dialJob 单次拨号
//
// 每个状态方法返回下一个状态。连接所有权：拨号得到的原始连接
// 最终交给调用方、缓存或多路复用会话之一；失败路径负责关闭。
type dialJob struct {
	id     string
	s      *Swarm
	ctx    context.Context
	peer   *types.PeerInfo
	proto  types.ProtocolID
	stream *deferred.Stream

	// 当前持有的原始连接与其协商会话
	conn interfaces.Conn
	sel  *protocol.Selector

	// 当前使用的多路复用连接
	muxed *MuxedEntry

	// 连接来自缓存，失效时允许重新拨号一次
	fromCache bool
	redialed  bool

	// 传输快照与下一个待尝试的传输，升级期间连接失效时从此处继续
	keys     []string
	next     int
	current  string
	dialErrs []error

	result interfaces.Stream
	err    error
}

func (s *Swarm) newDialJob(ctx context.Context, pi *types.PeerInfo, proto types.ProtocolID, stream *deferred.Stream) *dialJob {
	return &dialJob{
		id:     uuid.NewString(),
		s:      s,
		ctx:    ctx,
		peer:   pi,
		proto:  proto,
		stream: stream,
	}
}

// warm 是否为预热拨号（不请求协议）
func (j *dialJob) warm() bool {
	return j.proto == ""
}

// run 执行状态机直到 Done 或 Failed
func (j *dialJob) run() error {
	start := time.Now()
	state := stateCacheCheck

	for state != stateDone && state != stateFailed {
		logger.Debug("拨号状态",
			"dial", j.id,
			"peer", j.peer.ID.ShortString(),
			"state", state.String())

		switch state {
		case stateCacheCheck:
			state = j.cacheCheck()
		case stateDialing:
			state = j.dialing()
		case stateMuxerUpgrade:
			state = j.muxerUpgrade()
		case stateProtocolHandshake:
			state = j.protocolHandshake()
		}
	}

	if state == stateDone {
		state = j.done()
	}
	j.s.tracer.DialCompleted(j.err, time.Since(start))

	if state == stateFailed {
		if j.stream != nil {
			j.stream.Fail(j.err)
		}
		logger.Debug("拨号失败", "dial", j.id, "peer", j.peer.ID.ShortString(), "error", j.err)
		return j.err
	}

	logger.Debug("拨号完成",
		"dial", j.id,
		"peer", j.peer.ID.ShortString(),
		"protocol", j.proto,
		"elapsed", time.Since(start))
	return nil
}

// fail 记录错误并进入 Failed
func (j *dialJob) fail(err error) dialState {
	j.err = err
	return stateFailed
}

// dropConn 关闭当前原始连接
func (j *dialJob) dropConn() {
	if j.conn != nil {
		_ = j.conn.Close()
	}
	j.conn, j.sel = nil, nil
}

// retryAfterStale 缓存连接失效时重新拨号一次
func (j *dialJob) retryAfterStale(err error) (dialState, bool) {
	if !j.fromCache || j.redialed {
		return stateFailed, false
	}
	logger.Debug("缓存连接已失效，重新拨号", "dial", j.id, "peer", j.peer.ID.ShortString(), "error", err)
	j.redialed = true
	j.fromCache = false
	return stateDialing, true
}

// connLost 原始连接在升级或协商期间失效
//
// 缓存连接重新拨号一次；新拨号的连接记录错误后尝试下一个传输。
func (j *dialJob) connLost(err error) dialState {
	j.dropConn()
	if next, ok := j.retryAfterStale(err); ok {
		return next
	}
	logger.Debug("连接在升级期间失效，尝试下一个传输",
		"dial", j.id,
		"transport", j.current,
		"error", err)
	j.dialErrs = append(j.dialErrs, fmt.Errorf("%s: %w", j.current, err))
	return stateDialing
}

// ============================================================================
//                              状态实现
// ============================================================================

// cacheCheck 查询连接缓存
func (j *dialJob) cacheCheck() dialState {
	if e, ok := j.s.cache.getMuxed(j.peer.ID); ok {
		j.s.tracer.CacheLookup(metrics.CacheMuxed)
		j.muxed = e
		j.fromCache = true
		if j.warm() {
			return stateDone
		}
		return stateProtocolHandshake
	}

	if e, ok := j.s.cache.claimRaw(j.peer.ID); ok {
		j.s.tracer.CacheLookup(metrics.CacheRaw)
		j.conn, j.sel = e.conn, e.sel
		j.fromCache = true
		return stateMuxerUpgrade
	}

	j.s.tracer.CacheLookup(metrics.CacheMiss)
	return stateDialing
}

// dialing 按注册顺序依次尝试传输
func (j *dialJob) dialing() dialState {
	if j.keys == nil {
		j.keys = j.s.transports.Keys()
		if len(j.keys) == 0 {
			return j.fail(&DialError{Peer: j.peer.ID, Errors: []error{ErrNoTransports}})
		}
	}

	addrs := j.peer.Addrs()
	for j.next < len(j.keys) && j.ctx.Err() == nil {
		if j.s.closed.Load() {
			return j.fail(ErrSwarmClosed)
		}

		key := j.keys[j.next]
		j.next++

		conn, err := j.s.transports.Dial(j.ctx, key, addrs)
		if err != nil {
			j.dialErrs = append(j.dialErrs, fmt.Errorf("%s: %w", key, err))
			continue
		}

		logger.Debug("传输拨号成功", "dial", j.id, "transport", key, "remote", conn.RemoteMultiaddr())
		j.current = key
		j.conn = conn
		j.sel = protocol.NewSelector(conn, j.s.negotiateTimeout)
		j.fromCache = false
		if j.s.peerstore != nil {
			j.s.peerstore.AddAddrs(j.peer.ID, conn.RemoteMultiaddr())
		}
		return stateMuxerUpgrade
	}

	if err := j.ctx.Err(); err != nil && j.next < len(j.keys) {
		j.dialErrs = append(j.dialErrs, err)
	}
	return j.fail(&DialError{Peer: j.peer.ID, Errors: j.dialErrs})
}

// muxerUpgrade 按注册顺序协商多路复用编解码
//
// 对端拒绝（na）时尝试下一个；I/O 错误放弃剩余编解码并放弃该连接。
// ErrMuxerUpgradeFailed 只记录日志，不会返回给调用方。
func (j *dialJob) muxerUpgrade() dialState {
	muxers := j.s.streamMuxers()
	if len(muxers) == 0 {
		return j.upgradeRejected(ErrNoMuxers)
	}

	var lastErr error
	for _, m := range muxers {
		err := j.sel.Select(m.ID())
		if err == nil {
			return j.upgrade(m)
		}
		j.s.tracer.MuxerUpgrade(m.ID(), err)
		lastErr = err

		if errors.Is(err, protocol.ErrProtocolNotSupported) {
			logger.Debug("对端拒绝编解码", "dial", j.id, "codec", m.ID())
			continue
		}

		logger.Debug("多路复用升级失败", "dial", j.id, "error", fmt.Errorf("%w: %s: %w", ErrMuxerUpgradeFailed, m.ID(), err))
		return j.connLost(fmt.Errorf("negotiate %s: %w", m.ID(), err))
	}

	return j.upgradeRejected(fmt.Errorf("%w: %w", ErrMuxerUpgradeFailed, lastErr))
}

// upgrade 在已协商的连接上建立客户端会话并缓存
func (j *dialJob) upgrade(m interfaces.StreamMuxer) dialState {
	mc, err := m.NewConn(j.conn, false)
	j.s.tracer.MuxerUpgrade(m.ID(), err)
	if err != nil {
		// 对端已进入多路复用模式，原始连接无法继续使用
		logger.Debug("多路复用升级失败", "dial", j.id, "error", fmt.Errorf("%w: %s: %w", ErrMuxerUpgradeFailed, m.ID(), err))
		return j.connLost(fmt.Errorf("start %s session: %w", m.ID(), err))
	}

	entry := &MuxedEntry{Muxer: mc, Conn: j.conn, Codec: m.ID()}
	j.conn, j.sel = nil, nil

	if !j.s.adoptMuxer(entry) {
		return j.fail(ErrSwarmClosed)
	}

	winner, existing := j.s.cache.putMuxed(j.peer.ID, entry)
	switch {
	case winner == nil:
		_ = mc.Close()
		return j.fail(ErrSwarmClosed)
	case existing:
		// 并发拨号已缓存了会话，使用已有会话
		logger.Debug("节点已有多路复用连接，关闭新会话", "dial", j.id, "peer", j.peer.ID.ShortString())
		_ = mc.Close()
	}
	j.muxed = winner

	logger.Debug("多路复用升级成功", "dial", j.id, "codec", m.ID(), "peer", j.peer.ID.ShortString())
	if j.warm() {
		return stateDone
	}
	return stateProtocolHandshake
}

// upgradeRejected 所有编解码被拒绝后的处理
//
// 预热拨号暂存原始连接；请求了协议时在原始连接上协商。
func (j *dialJob) upgradeRejected(err error) dialState {
	logger.Debug("未能升级多路复用，使用原始连接", "dial", j.id, "reason", err)

	if !j.warm() {
		return stateProtocolHandshake
	}

	if !j.s.cache.putRaw(j.peer.ID, &rawEntry{conn: j.conn, sel: j.sel}) {
		j.dropConn()
		if j.s.closed.Load() {
			return j.fail(ErrSwarmClosed)
		}
		// 已有暂存连接
		return stateDone
	}
	j.conn, j.sel = nil, nil
	return stateDone
}

// protocolHandshake 协商请求的协议
func (j *dialJob) protocolHandshake() dialState {
	if j.muxed != nil {
		return j.handshakeMuxed()
	}
	return j.handshakeRaw()
}

// handshakeMuxed 打开子流并协商协议
func (j *dialJob) handshakeMuxed() dialState {
	mc := j.muxed.Muxer

	st, err := mc.OpenStream(j.ctx)
	if err != nil {
		// 会话不可用，移出缓存
		j.s.cache.evictMuxer(mc)
		_ = mc.Close()
		j.muxed = nil
		if next, ok := j.retryAfterStale(err); ok {
			return next
		}
		return j.fail(fmt.Errorf("open stream: %w", err))
	}

	if err := protocol.SelectProto(st, j.proto, j.s.negotiateTimeout); err != nil {
		_ = st.Close()
		// 协议被拒绝时会话保持缓存
		return j.fail(err)
	}

	j.result = j.s.tracer.MeterStream(st, j.proto)
	return stateDone
}

// handshakeRaw 在原始连接上协商协议
func (j *dialJob) handshakeRaw() dialState {
	err := j.sel.Select(j.proto)
	if err == nil {
		j.result = j.s.tracer.MeterStream(j.conn, j.proto)
		j.conn, j.sel = nil, nil
		return stateDone
	}

	if errors.Is(err, protocol.ErrProtocolNotSupported) {
		// 原始连接只在预热拨号时缓存
		j.dropConn()
		return j.fail(err)
	}

	return j.connLost(fmt.Errorf("negotiate %s: %w", j.proto, err))
}

// done 将协商好的流绑定到调用方的延迟流
func (j *dialJob) done() dialState {
	if j.warm() || j.stream == nil {
		return stateDone
	}

	if err := j.stream.Bind(j.result); err != nil {
		_ = j.result.Close()
		return j.fail(err)
	}
	return stateDone
}

// ============================================================================
//                              对外 API
// ============================================================================

// DialAsync 异步拨号
//
// 立即返回延迟流（预热拨号时为 nil）和只发送一次结果的错误通道。
// 流绑定前的写入按顺序缓冲，绑定时先于后续写入发送。
func (s *Swarm) DialAsync(ctx context.Context, pi *types.PeerInfo, proto types.ProtocolID) (*deferred.Stream, <-chan error) {
	errCh := make(chan error, 1)

	var stream *deferred.Stream
	if proto != "" {
		stream = deferred.New()
	}

	if err := s.checkDial(pi); err != nil {
		if stream != nil {
			stream.Fail(err)
		}
		errCh <- err
		close(errCh)
		return stream, errCh
	}

	job := s.newDialJob(ctx, pi, proto, stream)
	go func() {
		errCh <- job.run()
		close(errCh)
	}()
	return stream, errCh
}

// Dial 拨号并协商协议，阻塞直到完成
func (s *Swarm) Dial(ctx context.Context, pi *types.PeerInfo, proto types.ProtocolID) (interfaces.Stream, error) {
	if proto == "" {
		return nil, s.Connect(ctx, pi)
	}

	stream, errCh := s.DialAsync(ctx, pi, proto)
	if err := <-errCh; err != nil {
		return nil, err
	}
	return stream, nil
}

// Connect 预热拨号：建立连接并尝试多路复用升级，不打开流
func (s *Swarm) Connect(ctx context.Context, pi *types.PeerInfo) error {
	_, errCh := s.DialAsync(ctx, pi, "")
	return <-errCh
}

// DialPeer 按 PeerID 拨号，地址取自地址簿
func (s *Swarm) DialPeer(ctx context.Context, id types.PeerID, proto types.ProtocolID) (interfaces.Stream, error) {
	pi := types.NewPeerInfo(id)
	if s.peerstore != nil {
		pi.AddAddrs(s.peerstore.Addrs(id)...)
	}
	if len(pi.Addrs()) == 0 {
		if _, ok := s.cache.getMuxed(id); !ok && !s.cache.hasRaw(id) {
			return nil, fmt.Errorf("%w: %s", ErrNoAddresses, id.ShortString())
		}
	}
	return s.Dial(ctx, pi, proto)
}

func (s *Swarm) checkDial(pi *types.PeerInfo) error {
	if s.closed.Load() {
		return ErrSwarmClosed
	}
	if pi == nil || pi.ID.IsEmpty() {
		return types.ErrEmptyPeerID
	}
	if pi.ID == s.local.ID {
		return ErrDialToSelf
	}
	return nil
}
