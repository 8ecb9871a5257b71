// Package tcp 实现 TCP 传输
//
// 原始 TCP 连接不提供多路复用，由 swarm 在其上协商 yamux。
//
// # 地址格式
//
//	/ip4/1.2.3.4/tcp/4001
//	/ip6/::1/tcp/4001
//
// # 使用示例
//
//	t := tcp.New(tcp.DefaultConfig())
//
//	// 监听（端口 0 解析为实际端口）
//	bound, err := t.Listen(addrs, func(c interfaces.Conn) { ... })
//
//	// 拨号
//	conn, err := t.Dial(ctx, raddr)
package tcp
