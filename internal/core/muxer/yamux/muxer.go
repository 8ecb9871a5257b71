package yamux

import (
	"context"
	"errors"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// ErrMuxerClosed 会话已关闭
var ErrMuxerClosed = errors.New("yamux session closed")

// Muxer 包装 hashicorp yamux.Session
type Muxer struct {
	session *yamux.Session
}

var _ interfaces.MuxedConn = (*Muxer)(nil)

// OpenStream 打开新流
//
// hashicorp yamux 的 OpenStream 不接受 context，在单独的 goroutine 中执行，
// context 先结束时关闭孤立的流。
func (m *Muxer) OpenStream(ctx context.Context) (interfaces.Stream, error) {
	if m.session.IsClosed() {
		return nil, ErrMuxerClosed
	}

	type result struct {
		stream *yamux.Stream
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		s, err := m.session.OpenStream()
		resultCh <- result{stream: s, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, convertError(res.err)
		}
		return res.stream, nil
	case <-ctx.Done():
		go func() {
			if res := <-resultCh; res.stream != nil {
				_ = res.stream.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// AcceptStream 接受新流
func (m *Muxer) AcceptStream() (interfaces.Stream, error) {
	s, err := m.session.AcceptStream()
	if err != nil {
		return nil, convertError(err)
	}
	return s, nil
}

// Close 关闭会话
func (m *Muxer) Close() error {
	return m.session.Close()
}

// IsClosed 检查会话是否已关闭
func (m *Muxer) IsClosed() bool {
	return m.session.IsClosed()
}

// CloseChan 会话关闭时关闭
func (m *Muxer) CloseChan() <-chan struct{} {
	return m.session.CloseChan()
}

// NumStreams 活跃流数量
func (m *Muxer) NumStreams() int {
	return m.session.NumStreams()
}

func convertError(err error) error {
	if errors.Is(err, yamux.ErrSessionShutdown) {
		return ErrMuxerClosed
	}
	return err
}
