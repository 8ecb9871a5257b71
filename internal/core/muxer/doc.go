// Package muxer 提供流多路复用编解码
//
// 本包实现 "/yamux/1.0.0"（libp2p go-yamux），子包 yamux 实现
// "/yamux-hc/1.0.0"（hashicorp yamux）。swarm 按配置中的偏好顺序
// 在原始连接上协商编解码，协商成功后创建会话。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    muxer.Module,
//	    fx.Invoke(func(muxers []interfaces.StreamMuxer) { ... }),
//	)
package muxer
