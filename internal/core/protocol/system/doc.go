// Package system 实现系统协议
//
// system 包含 swarm 内置的系统级协议，在启用连接复用时由 Swarm 自动注册。
//
// # 系统协议
//
//   - identify: 节点身份识别协议（/ipfs/id/1.0.0）
package system
