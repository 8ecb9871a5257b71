package peerstore

import "errors"

var (
	// ErrNotFound 节点未找到
	ErrNotFound = errors.New("peer not found")

	// ErrInvalidCapacity 容量无效
	ErrInvalidCapacity = errors.New("invalid peerstore capacity")

	// ErrClosed 存储已关闭
	ErrClosed = errors.New("peerstore closed")
)
