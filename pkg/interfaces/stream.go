package interfaces

import (
	"io"
	"time"
)

// Stream 协议流
//
// 可以是多路复用子流，也可以是未复用的原始连接。
type Stream interface {
	io.ReadWriteCloser

	// SetDeadline 设置读写截止时间
	SetDeadline(t time.Time) error
}

// StreamHandler 协议处理器
//
// 处理器拥有流，返回前负责关闭。
type StreamHandler func(Stream)
