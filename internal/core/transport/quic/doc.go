// Package quic 实现 QUIC 传输
//
// QUIC 自带多路复用，但 swarm 统一在原始连接上协商多路复用与协议，
// 因此每条 QUIC 连接只使用一条双向流，作为 interfaces.Conn 暴露。
// 拨号方打开流，监听方接受第一条流。
//
// TLS 使用节点 Ed25519 密钥签发的自签名证书，对端证书必须携带 Ed25519 公钥。
//
// # 地址格式
//
//	/ip4/1.2.3.4/udp/4001/quic-v1
//	/ip6/::1/udp/4001/quic-v1
package quic
