// Package identity 管理节点身份
//
// 节点身份是一对 Ed25519 密钥，PeerID 由公钥派生（见 types.IDFromPublicKey）。
// 私钥以 PEM 格式持久化，写入使用临时文件 + rename 保证原子性。
//
//	id, err := identity.LoadOrCreate("node.key", true)
//	fmt.Println(id.ID())
package identity
