// Package swarm 实现连接群管理
//
// swarm 负责节点间的连接建立、缓存和复用，是网络层的核心组件。
//
// # 核心功能
//
// 传输管理：
//   - 按键注册传输（TCP / WebSocket / QUIC）
//   - 在本地地址上启动监听，入站连接交给协议路由器
//
// 连接缓存：
//   - 每个节点最多一个多路复用连接
//   - 未能升级的预热连接暂存为原始连接，由下一次拨号取走
//   - 多路复用会话关闭后自动从缓存中移除
//
// 拨号编排：
//   - 显式状态机：CacheCheck → Dialing → MuxerUpgrade → ProtocolHandshake → Done / Failed
//   - 传输按注册顺序依次尝试，同一传输内多地址并发竞速
//   - 多路复用编解码按注册顺序协商，拒绝时尝试下一个
//
// 连接复用：
//   - Connection().Reuse() 启用 identify
//   - 入站多路复用连接完成 identify 后按对端 PeerID 缓存
//
// # 快速开始
//
//	s, err := swarm.NewSwarm(local, swarm.WithPublicKey(id.PublicKey()))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	_ = s.Transport().Add("tcp", tcp.New(tcp.DefaultConfig()))
//	_ = s.Listen("tcp")
//
//	s.Connection().AddStreamMuxer(muxer.NewTransport(muxer.DefaultConfig()))
//	_ = s.Connection().Reuse()
//
//	s.Handle("/echo/1.0.0", func(st interfaces.Stream) {
//	    defer st.Close()
//	    _, _ = io.Copy(st, st)
//	})
//
//	stream, err := s.Dial(ctx, remote, "/echo/1.0.0")
//
// # 异步拨号
//
// DialAsync 立即返回延迟流，拨号完成前的写入按顺序缓冲：
//
//	stream, errCh := s.DialAsync(ctx, remote, "/echo/1.0.0")
//	_, _ = stream.Write([]byte("hello"))
//	if err := <-errCh; err != nil {
//	    return err
//	}
package swarm
