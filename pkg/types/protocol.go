package types

import "strings"

// ProtocolID 协议标识符
//
// 例如 "/echo/1.0.0"、"/yamux/1.0.0"。空字符串表示"不请求协议"（预热拨号）。
type ProtocolID = string

// ProtocolVersion 返回协议标识的版本段
func ProtocolVersion(p ProtocolID) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[idx+1:]
}
