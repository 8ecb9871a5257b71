package identify

import "errors"

var (
	// ErrIdentifyFailed 身份交换失败（日志记录，不影响连接）
	ErrIdentifyFailed = errors.New("identify failed")

	// ErrMessageTooLarge 消息超过 MaxMessageSize
	ErrMessageTooLarge = errors.New("identify message too large")

	// ErrPeerIDMismatch 对端声明的 PeerID 与公钥不符
	ErrPeerIDMismatch = errors.New("peer id does not match public key")
)
