package deferred

import (
	"sync"
	"time"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
)

var logger = log.Logger("core/deferred")

// Stream 延迟绑定流
//
// 实现 interfaces.Stream。状态只迁移一次：未决 -> 已绑定 | 已失败。
type Stream struct {
	mu sync.Mutex

	conn     interfaces.Stream
	pending  [][]byte
	deadline time.Time
	err      error
	closed   bool

	done    chan struct{}
	closeCh chan struct{}
}

var _ interfaces.Stream = (*Stream)(nil)

// New 创建未绑定的流
func New() *Stream {
	return &Stream{
		done:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Bind 绑定底层流
//
// 缓存的写入在持锁状态下按序回放，之后的写入直接透传。
// 第二次绑定返回 ErrAlreadyBound，调用方保留传入流的所有权。
func (s *Stream) Bind(conn interfaces.Stream) error {
	if conn == nil {
		return ErrNilStream
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled() {
		return ErrAlreadyBound
	}

	if !s.deadline.IsZero() {
		_ = conn.SetDeadline(s.deadline)
	}

	for _, buf := range s.pending {
		if _, err := conn.Write(buf); err != nil {
			logger.Debug("回放缓存写入失败", "error", err)
			s.pending = nil
			s.err = err
			_ = conn.Close()
			close(s.done)
			return err
		}
	}
	s.pending = nil
	s.conn = conn

	if s.closed {
		_ = conn.Close()
	}
	close(s.done)
	return nil
}

// Fail 以错误结束未决的流
//
// 已绑定或已失败时忽略。
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled() {
		return
	}
	s.pending = nil
	s.err = err
	close(s.done)
}

// Done 返回绑定或失败时关闭的通道
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err 返回失败原因，未失败时为 nil
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsBound 检查是否已绑定
func (s *Stream) IsBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Read 读取数据，绑定前阻塞
func (s *Stream) Read(p []byte) (int, error) {
	select {
	case <-s.done:
	case <-s.closeCh:
		return 0, ErrClosed
	}

	s.mu.Lock()
	conn, err := s.conn, s.err
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return conn.Read(p)
}

// Write 写入数据
//
// 绑定前复制并缓存，返回 len(p)。
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return 0, err
	}
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	if s.conn == nil {
		buf := make([]byte, len(p))
		copy(buf, p)
		s.pending = append(s.pending, buf)
		s.mu.Unlock()
		return len(p), nil
	}
	conn := s.conn
	s.mu.Unlock()

	return conn.Write(p)
}

// SetDeadline 设置读写截止时间，绑定前记录并在绑定时应用
func (s *Stream) SetDeadline(t time.Time) error {
	s.mu.Lock()
	if s.conn == nil {
		s.deadline = t
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.mu.Unlock()

	return conn.SetDeadline(t)
}

// Close 关闭流
//
// 绑定前关闭时，底层流在绑定后立即关闭。
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	conn := s.conn
	s.pending = nil
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// settled 调用方需持有锁
func (s *Stream) settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
