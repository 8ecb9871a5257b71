// Package types 定义 swarm 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - ids.go       - PeerID 节点标识（公钥派生，Base58 编码的 multihash）
//   - protocol.go  - ProtocolID 协议标识
//   - peerinfo.go  - PeerInfo 节点信息（ID + 有序地址集合）
//   - errors.go    - 公共错误定义
package types
