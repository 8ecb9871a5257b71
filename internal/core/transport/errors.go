package transport

import (
	"errors"
	"fmt"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"
)

var (
	// ErrDuplicateTransportKey 传输键已注册
	ErrDuplicateTransportKey = errors.New("transport key already registered")

	// ErrUnknownTransport 未注册的传输键
	ErrUnknownTransport = errors.New("unknown transport")

	// ErrNoDialableAddrs 没有本传输可处理的地址
	ErrNoDialableAddrs = errors.New("no dialable addresses for transport")

	// ErrNoListenAddrs 没有本传输可监听的地址
	ErrNoListenAddrs = errors.New("no listen addresses for transport")

	// ErrAllAddrsFailed 所有地址拨号失败
	ErrAllAddrsFailed = errors.New("all addresses failed")

	// ErrTransportClose 关闭传输失败
	ErrTransportClose = errors.New("transport close failed")
)

// DialError 单个传输上的多地址拨号错误
//
// errors.Is(err, ErrAllAddrsFailed) 为真；每个地址的原因可通过
// errors.Is / errors.As 继续匹配。
type DialError struct {
	Transport string
	Addrs     []ma.Multiaddr
	Cause     error
}

// Error 实现 error 接口
func (e *DialError) Error() string {
	causes := multierr.Errors(e.Cause)
	parts := make([]string, len(causes))
	for i, c := range causes {
		parts[i] = c.Error()
	}
	return fmt.Sprintf("transport %s: %d address(es) failed: %s",
		e.Transport, len(e.Addrs), strings.Join(parts, "; "))
}

// Is 匹配 ErrAllAddrsFailed
func (e *DialError) Is(target error) bool {
	return target == ErrAllAddrsFailed
}

// Unwrap 返回每个地址的错误
func (e *DialError) Unwrap() []error {
	return multierr.Errors(e.Cause)
}
