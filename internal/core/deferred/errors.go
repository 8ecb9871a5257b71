package deferred

import "errors"

var (
	// ErrAlreadyBound 流已经绑定（或已失败）
	ErrAlreadyBound = errors.New("deferred stream already bound")

	// ErrClosed 流已关闭
	ErrClosed = errors.New("deferred stream closed")

	// ErrNilStream 绑定了空流
	ErrNilStream = errors.New("cannot bind nil stream")
)
