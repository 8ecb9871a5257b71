package protocol

import (
	"io"
	"sort"
	"sync"
	"time"

	mss "github.com/multiformats/go-multistream"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/protocol")

// DefaultNegotiateTimeout 默认协商超时
const DefaultNegotiateTimeout = 10 * time.Second

// ============================================================================
//                              Router 实现
// ============================================================================

// Router 协议路由器
//
// 每个 Swarm 持有独立实例；处理器映射由互斥锁保护。
type Router struct {
	mu       sync.RWMutex
	handlers map[types.ProtocolID]interfaces.StreamHandler

	mux     *mss.MultistreamMuxer[string]
	timeout time.Duration
}

// NewRouter 创建路由器
//
// timeout 为入站协商超时，<=0 时不设置超时。
func NewRouter(timeout time.Duration) *Router {
	return &Router{
		handlers: make(map[types.ProtocolID]interfaces.StreamHandler),
		mux:      mss.NewMultistreamMuxer[string](),
		timeout:  timeout,
	}
}

// Handle 注册协议处理器
//
// 同一协议重复注册时覆盖原处理器。
func (r *Router) Handle(id types.ProtocolID, handler interfaces.StreamHandler) {
	r.mu.Lock()
	_, replaced := r.handlers[id]
	r.handlers[id] = handler
	r.mu.Unlock()

	// 处理器保存在 handlers 中，multistream 只负责协商
	r.mux.AddHandler(id, nil)

	if replaced {
		logger.Debug("覆盖协议处理器", "protocol", id)
	} else {
		logger.Debug("注册协议处理器", "protocol", id)
	}
}

// Remove 移除协议处理器
func (r *Router) Remove(id types.ProtocolID) {
	r.mu.Lock()
	delete(r.handlers, id)
	r.mu.Unlock()

	r.mux.RemoveHandler(id)
}

// Protocols 返回已注册的协议（排序）
func (r *Router) Protocols() []types.ProtocolID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ProtocolID, 0, len(r.handlers))
	for id := range r.handlers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Handler 获取协议处理器
func (r *Router) Handler(id types.ProtocolID) (interfaces.StreamHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[id]
	return h, ok
}

// Dispatch 在入站流上协商协议并调用处理器
//
// 阻塞直到处理器返回。协商失败或没有匹配的协议时关闭流。
// 超时按轮次计算：协议头与首个请求须在超时内完成，之后每次回复
// 清除截止时间，收到下一个请求的首字节时重新计时。
func (r *Router) Dispatch(s interfaces.Stream) {
	var rwc io.ReadWriteCloser = s
	if r.timeout > 0 {
		rwc = newRoundStream(s, r.timeout)
	}

	proto, _, err := r.mux.Negotiate(rwc)
	if err != nil {
		logger.Debug("入站协议协商失败", "error", err)
		_ = s.Close()
		return
	}

	if r.timeout > 0 {
		_ = s.SetDeadline(time.Time{})
	}

	h, ok := r.Handler(proto)
	if !ok {
		// 协商与移除并发
		logger.Debug("协议处理器已移除", "protocol", proto)
		_ = s.Close()
		return
	}

	logger.Debug("分发入站流", "protocol", proto)
	h(s)
}

// ============================================================================
//                              协商截止时间
// ============================================================================

// roundStream 按协商轮次设置截止时间
type roundStream struct {
	interfaces.Stream
	timeout time.Duration

	writes int
	armed  bool
}

func newRoundStream(s interfaces.Stream, timeout time.Duration) *roundStream {
	_ = s.SetDeadline(time.Now().Add(timeout))
	return &roundStream{Stream: s, timeout: timeout, armed: true}
}

// Read 空闲时收到首字节后开始计时
func (rs *roundStream) Read(p []byte) (int, error) {
	n, err := rs.Stream.Read(p)
	if n > 0 && !rs.armed {
		_ = rs.Stream.SetDeadline(time.Now().Add(rs.timeout))
		rs.armed = true
	}
	return n, err
}

// Write 回复请求后清除截止时间
//
// 第一次写入是本端协议头，此时仍在等待对端协议头。
func (rs *roundStream) Write(p []byte) (int, error) {
	n, err := rs.Stream.Write(p)
	rs.writes++
	if err == nil && rs.writes > 1 {
		_ = rs.Stream.SetDeadline(time.Time{})
		rs.armed = false
	}
	return n, err
}
