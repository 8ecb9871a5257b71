package transport

import (
	"context"
	"fmt"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

type dialResult struct {
	addr ma.Multiaddr
	conn interfaces.Conn
	err  error
}

// dialRace 在多个地址上竞速拨号
//
// 第一个成功的连接胜出；失败在最后一个地址失败前不上报。
// 未完成的拨号不取消，迟到的成功连接在后台关闭。
func dialRace(ctx context.Context, key string, t interfaces.Transport, addrs []ma.Multiaddr) (interfaces.Conn, error) {
	if len(addrs) == 1 {
		conn, err := t.Dial(ctx, addrs[0])
		if err != nil {
			return nil, &DialError{
				Transport: key,
				Addrs:     addrs,
				Cause:     fmt.Errorf("%s: %w", addrs[0], err),
			}
		}
		return conn, nil
	}

	results := make(chan dialResult, len(addrs))
	for _, addr := range addrs {
		go func(addr ma.Multiaddr) {
			conn, err := t.Dial(ctx, addr)
			results <- dialResult{addr: addr, conn: conn, err: err}
		}(addr)
	}

	var errs error
	for i := 0; i < len(addrs); i++ {
		res := <-results
		if res.err == nil {
			if remaining := len(addrs) - i - 1; remaining > 0 {
				go drainRace(results, remaining)
			}
			return res.conn, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.addr, res.err))
	}

	return nil, &DialError{Transport: key, Addrs: addrs, Cause: errs}
}

// drainRace 回收竞速中落败的拨号结果
func drainRace(results <-chan dialResult, remaining int) {
	for i := 0; i < remaining; i++ {
		res := <-results
		if res.err == nil && res.conn != nil {
			logger.Debug("关闭竞速落败的连接", "addr", res.addr)
			_ = res.conn.Close()
		}
	}
}
