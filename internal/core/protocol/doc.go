// Package protocol 实现协议路由与协商
//
// 基于 multistream-select（github.com/multiformats/go-multistream）：
//
//   - Router：监听端。持有协议 ID 到处理器的映射，在入站流上协商
//     并把流交给匹配的处理器；没有匹配时关闭流。
//   - Selector：拨号端。一个 Selector 对应连接上的一次协商会话，
//     第一次 Select 发送 multistream 头，之后的 Select 只发送协议标记，
//     因此可以在同一连接上依次尝试多个协议（多路复用编解码、应用协议）。
//
// 重复注册同一协议 ID 时后注册者覆盖先注册者。
package protocol
