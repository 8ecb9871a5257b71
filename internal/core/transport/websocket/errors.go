package websocket

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("websocket transport closed")

	// ErrUnsupportedAddr 不是 WebSocket 地址
	ErrUnsupportedAddr = errors.New("not a websocket multiaddr")
)
