// Package interfaces 定义 swarm 的能力接口
//
// swarm 只在接口边界上消费传输与多路复用实现：
//
//   - transport.go  - Transport 传输层（过滤 / 拨号 / 监听 / 关闭）
//   - muxer.go      - StreamMuxer / MuxedConn 多路复用
//   - stream.go     - Stream 流与处理器
//
// 具体实现位于 internal/core 下对应目录。
package interfaces
