package protocol

import "errors"

var (
	// ErrProtocolNotSupported 对端不支持请求的协议（收到 "na"）
	ErrProtocolNotSupported = errors.New("protocol not supported")

	// ErrNegotiationFailed 协商过程中的 I/O 或格式错误
	ErrNegotiationFailed = errors.New("protocol negotiation failed")

	// ErrUnexpectedResponse 对端返回了意外的协议标记
	ErrUnexpectedResponse = errors.New("unexpected negotiation response")
)
