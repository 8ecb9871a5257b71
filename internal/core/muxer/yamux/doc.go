// Package yamux 基于 hashicorp/yamux 的多路复用编解码
//
// 编解码标识 "/yamux-hc/1.0.0"。与 go-yamux 的帧格式兼容，
// 但以独立标识协商，两端必须选择同一实现。
package yamux
