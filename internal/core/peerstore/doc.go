// Package peerstore 实现节点地址簿
//
// peerstore 记录已知节点的地址和协议支持，供按 PeerID 拨号使用。
// 地址来源：
//   - 调用方显式添加（Swarm.AddAddrs）
//   - 入站连接完成 identify 后由 Swarm 写入
//
// 容量有限，超出后淘汰最久未使用的节点（golang-lru）。
//
// # 使用示例
//
//	ps, err := peerstore.NewPeerstore(1024)
//	if err != nil {
//	    return err
//	}
//	defer ps.Close()
//
//	ps.AddAddrs(peerID, addr)
//	info := ps.PeerInfo(peerID)
package peerstore
