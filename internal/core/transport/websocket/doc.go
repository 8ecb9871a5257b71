// Package websocket 实现 WebSocket 传输
//
// 每条 WebSocket 连接被包装为字节流（interfaces.Conn），写入对应一条二进制消息，
// 读取跨消息边界连续进行。之上由 swarm 协商 yamux。
//
// # 地址格式
//
//	/ip4/1.2.3.4/tcp/8080/ws
//	/dns4/example.com/tcp/443/ws
package websocket
