package identity

import "errors"

var (
	// ErrInvalidPEM 无效的 PEM 数据
	ErrInvalidPEM = errors.New("invalid PEM data")

	// ErrInvalidKeySize 密钥长度错误
	ErrInvalidKeySize = errors.New("invalid ed25519 key size")

	// ErrKeyNotFound 密钥文件不存在
	ErrKeyNotFound = errors.New("key not found")
)
