package transport

import (
	"context"
	"fmt"
	"sync"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-dep2p-swarm/internal/core/deferred"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

var logger = log.Logger("core/transport")

// ============================================================================
//                              Registry 结构
// ============================================================================

// Registry 传输注册表
//
// 每个 Swarm 持有独立的注册表实例。
type Registry struct {
	mu         sync.RWMutex
	keys       []string
	transports map[string]interfaces.Transport
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		transports: make(map[string]interfaces.Transport),
	}
}

// Binding 传输键与实现的绑定
type Binding struct {
	Key       string
	Transport interfaces.Transport
}

// ============================================================================
//                              注册管理
// ============================================================================

// Add 注册传输
//
// 键已存在时返回 ErrDuplicateTransportKey，原有绑定保持不变。
func (r *Registry) Add(key string, t interfaces.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transports[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTransportKey, key)
	}
	r.transports[key] = t
	r.keys = append(r.keys, key)

	logger.Debug("注册传输", "key", key)
	return nil
}

// Get 获取传输
func (r *Registry) Get(key string) (interfaces.Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.transports[key]
	return t, ok
}

// Keys 按注册顺序返回所有传输键
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Bindings 按注册顺序返回所有绑定
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Binding{Key: k, Transport: r.transports[k]})
	}
	return out
}

// remove 移除传输（调用方持有写锁）
func (r *Registry) remove(key string) {
	delete(r.transports, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			return
		}
	}
}

func (r *Registry) mustGet(key string) (interfaces.Transport, error) {
	t, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, key)
	}
	return t, nil
}

// ============================================================================
//                              拨号
// ============================================================================

// Dial 使用指定传输拨号
//
// 地址先经传输过滤；只剩一个时直接拨号，多个时并发竞速。
func (r *Registry) Dial(ctx context.Context, key string, addrs []ma.Multiaddr) (interfaces.Conn, error) {
	t, err := r.mustGet(key)
	if err != nil {
		return nil, err
	}

	dialable := t.Filter(addrs)
	if len(dialable) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDialableAddrs, key)
	}

	conn, err := dialRace(ctx, key, t, dialable)
	if err != nil {
		logger.Debug("传输拨号失败", "key", key, "addrs", len(dialable), "error", err)
		return nil, err
	}

	logger.Debug("传输拨号成功", "key", key, "remote", conn.RemoteMultiaddr())
	return conn, nil
}

// DialDeferred 延迟拨号
//
// 立即返回未绑定的流；拨号在后台进行，成功后绑定，失败后以错误结束。
// cb（可为 nil）恰好被调用一次。
func (r *Registry) DialDeferred(ctx context.Context, key string, addrs []ma.Multiaddr, cb func(error)) *deferred.Stream {
	s := deferred.New()

	go func() {
		conn, err := r.Dial(ctx, key, addrs)
		if err == nil {
			if err = s.Bind(conn); err != nil {
				_ = conn.Close()
			}
		} else {
			s.Fail(err)
		}
		if cb != nil {
			cb(err)
		}
	}()

	return s
}

// ============================================================================
//                              监听
// ============================================================================

// Listen 在本地节点的地址上启动指定传输的监听
//
// 传输返回的实际绑定地址原地替换 local 中对应的地址。
func (r *Registry) Listen(key string, local *types.PeerInfo, handler interfaces.ConnHandler) error {
	t, err := r.mustGet(key)
	if err != nil {
		return err
	}

	laddrs := t.Filter(local.Addrs())
	if len(laddrs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoListenAddrs, key)
	}

	bound, err := t.Listen(laddrs, handler)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", key, err)
	}
	if len(bound) > 0 {
		local.ReplaceAddrs(laddrs, bound)
	}

	logger.Info("传输开始监听", "key", key, "addrs", len(laddrs))
	return nil
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭并移除指定传输
func (r *Registry) Close(key string) error {
	r.mu.Lock()
	t, ok := r.transports[key]
	if ok {
		r.remove(key)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransport, key)
	}
	if err := t.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransportClose, key, err)
	}
	return nil
}

// CloseAll 并发关闭所有传输
//
// 所有传输都确认关闭后才返回，与完成顺序无关。错误聚合返回。
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	bindings := make([]Binding, 0, len(r.keys))
	for _, k := range r.keys {
		bindings = append(bindings, Binding{Key: k, Transport: r.transports[k]})
	}
	r.keys = nil
	r.transports = make(map[string]interfaces.Transport)
	r.mu.Unlock()

	var g errgroup.Group
	errs := make([]error, len(bindings))
	for i, b := range bindings {
		i, b := i, b
		g.Go(func() error {
			if err := b.Transport.Close(); err != nil {
				errs[i] = fmt.Errorf("%w: %s: %w", ErrTransportClose, b.Key, err)
			}
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		// Wait 只返回第一个错误
		err = multierr.Combine(errs...)
		logger.Debug("关闭传输出错", "count", len(bindings), "error", err)
		return err
	}

	logger.Debug("所有传输已关闭", "count", len(bindings))
	return nil
}
