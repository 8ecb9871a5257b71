// Package identify 实现节点身份识别协议
//
// identify 协议在入站多路复用连接建立后交换节点信息，包括：
//   - 节点 ID 和公钥
//   - 支持的协议列表
//   - 监听地址
//   - 代理版本
//
// # 协议 ID
//
//	/ipfs/id/1.0.0
//
// # 流程
//
//  1. 监听端接受多路复用连接后打开子流并协商 identify
//  2. 监听端发送请求，携带其观察到的对端地址
//  3. 拨号端回复本地 Message
//  4. 监听端校验 PeerID 与公钥一致后，以该 PeerID 缓存连接
//
// # 编码
//
// 每条消息为 uvarint 长度前缀 + JSON 正文。
//
// # 使用
//
//	svc := identify.NewService(localInfo, id.PublicKey(), router.Protocols)
//	router.Handle(identify.ProtocolID, svc.Handler)
//
//	msg, err := identify.Exec(ctx, muxed, backing, 10*time.Second)
package identify
