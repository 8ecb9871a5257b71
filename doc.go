// Package dep2p 提供连接群（swarm）节点
//
// 节点管理多个传输（TCP、WebSocket、QUIC），在原始连接上协商多路复用
// 编解码，并按协议 ID 将流分派给处理器。对同一节点的后续拨号复用缓存的
// 多路复用会话；启用连接复用后，入站会话通过 identify 交换身份，之后
// 也可被本地拨号复用。
//
// # 快速开始
//
//	node, err := dep2p.Start(ctx,
//	    dep2p.WithListenAddrs("/ip4/0.0.0.0/tcp/4001"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	node.Handle("/echo/1.0.0", func(s dep2p.Stream) {
//	    defer s.Close()
//	    io.Copy(s, s)
//	})
//
//	stream, err := node.Dial(ctx, remote, "/echo/1.0.0")
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Node         dep2p.New() / dep2p.Start()                │
//	├──────────────────────────────────────────────────────────┤
//	│  Swarm        拨号状态机、连接缓存、连接复用             │
//	├──────────────┬───────────────┬──────────────┬────────────┤
//	│  Transport   │  Muxer        │  Protocol    │  Identify  │
//	│  tcp/ws/quic │  yamux        │  multistream │  /ipfs/id  │
//	├──────────────┴───────────────┴──────────────┴────────────┤
//	│  Identity / Peerstore / Metrics / Config                 │
//	└──────────────────────────────────────────────────────────┘
//
// 组件通过 go.uber.org/fx 组装，配置见 config 包。
package dep2p
