package quic

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("quic transport closed")

	// ErrUnsupportedAddr 不是 QUIC 地址
	ErrUnsupportedAddr = errors.New("not a quic-v1 multiaddr")

	// ErrInvalidPeerCert 对端证书无效
	ErrInvalidPeerCert = errors.New("invalid peer certificate")
)
