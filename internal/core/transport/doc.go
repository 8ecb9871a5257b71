// Package transport 实现传输注册表
//
// Registry 以字符串键管理多个传输实现，保持注册顺序，提供：
//
//   - 多地址竞速拨号：过滤出本传输可处理的地址，并发拨号，
//     第一个成功者胜出，其余结果被丢弃（迟到的成功连接会被关闭）
//   - 延迟拨号：立即返回 deferred.Stream，后台完成竞速后绑定
//   - 监听：启动监听并把解析出的实际地址原地写回本地节点信息
//   - 关闭：并发关闭所有传输，全部完成后才返回
//
// # 支持的传输协议
//
//   - TCP:       /ip4/.../tcp/...           (tcp 子包)
//   - WebSocket: /ip4/.../tcp/.../ws        (websocket 子包)
//   - QUIC:      /ip4/.../udp/.../quic-v1   (quic 子包)
//
// # 并发安全
//
// Registry 使用 sync.RWMutex 保护注册表；拨号与监听在锁外执行。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    transport.Module,
//	    fx.Invoke(func(r *transport.Registry) {
//	        // 使用注册表
//	    }),
//	)
package transport
