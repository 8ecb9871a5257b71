package protocol

import (
	"errors"
	"fmt"
	"io"
	"time"

	mss "github.com/multiformats/go-multistream"
	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// Selector 拨号端协商会话
//
// 同一连接上的多次 Select 共享一个 multistream 会话：只有第一次发送协议头。
// 非并发安全，由持有连接的一方串行使用。
type Selector struct {
	stream  interfaces.Stream
	timeout time.Duration
	started bool
}

// NewSelector 在流上创建协商会话
//
// timeout 为单次 Select 的超时，<=0 时不设置超时。
func NewSelector(s interfaces.Stream, timeout time.Duration) *Selector {
	return &Selector{stream: s, timeout: timeout}
}

// Select 请求协议
//
// 对端回复 "na" 时返回 ErrProtocolNotSupported，会话仍可继续 Select；
// 其他错误包装为 ErrNegotiationFailed，会话不可再用。
func (s *Selector) Select(proto types.ProtocolID) error {
	if s.timeout > 0 {
		_ = s.stream.SetDeadline(time.Now().Add(s.timeout))
		defer s.stream.SetDeadline(time.Time{})
	}

	var err error
	if !s.started {
		s.started = true
		err = mss.SelectProtoOrFail(proto, s.stream)
	} else {
		err = s.selectToken(proto)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, mss.ErrNotSupported[string]{}), errors.Is(err, ErrProtocolNotSupported):
		return fmt.Errorf("%w: %s", ErrProtocolNotSupported, proto)
	case errors.Is(err, ErrUnexpectedResponse):
		return fmt.Errorf("%w: %w", ErrNegotiationFailed, err)
	default:
		return fmt.Errorf("%w: select %s: %w", ErrNegotiationFailed, proto, err)
	}
}

// Started 是否已发送协议头
func (s *Selector) Started() bool {
	return s.started
}

// Stream 返回底层流
func (s *Selector) Stream() interfaces.Stream {
	return s.stream
}

// selectToken 在已建立的会话上发送协议标记并读取回复
func (s *Selector) selectToken(proto types.ProtocolID) error {
	if err := writeToken(s.stream, proto); err != nil {
		return err
	}

	tok, err := mss.ReadNextToken[string](s.stream)
	if err != nil {
		return err
	}
	switch tok {
	case proto:
		return nil
	case "na":
		return ErrProtocolNotSupported
	default:
		return fmt.Errorf("%w: %q", ErrUnexpectedResponse, tok)
	}
}

// writeToken 写入 multistream 标记：uvarint(len+1) || token || '\n'
func writeToken(w io.Writer, tok string) error {
	buf := make([]byte, 0, varint.UvarintSize(uint64(len(tok)+1))+len(tok)+1)
	buf = append(buf, varint.ToUvarint(uint64(len(tok)+1))...)
	buf = append(buf, tok...)
	buf = append(buf, '\n')
	_, err := w.Write(buf)
	return err
}

// SelectProto 在新流上完成一次性协商
func SelectProto(s interfaces.Stream, proto types.ProtocolID, timeout time.Duration) error {
	return NewSelector(s, timeout).Select(proto)
}
