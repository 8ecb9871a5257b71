package muxer

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-yamux/v5"
)

var (
	// ErrStreamReset 流被重置
	ErrStreamReset = errors.New("stream reset")

	// ErrConnClosed 会话已关闭
	ErrConnClosed = errors.New("muxed connection closed")

	// ErrUnknownCodec 未知的编解码标识
	ErrUnknownCodec = errors.New("unknown muxer codec")
)

// parseError 转换 yamux 错误为包内错误，保留原始错误
//
// yamux 的 ErrSessionShutdown 同时匹配 ErrStreamReset，须先判断。
func parseError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, yamux.ErrSessionShutdown) {
		return fmt.Errorf("%w: %w", ErrConnClosed, err)
	}
	if errors.Is(err, yamux.ErrStreamReset) {
		return fmt.Errorf("%w: %w", ErrStreamReset, err)
	}
	return err
}
