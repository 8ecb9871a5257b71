package types

import (
	ma "github.com/multiformats/go-multiaddr"
)

// ============================================================================
//                              地址形态判断
// ============================================================================

// transportCodes 返回地址的协议码序列，忽略末尾的 /p2p 组件
func transportCodes(a ma.Multiaddr) []int {
	if a == nil {
		return nil
	}
	protos := a.Protocols()
	codes := make([]int, 0, len(protos))
	for _, p := range protos {
		codes = append(codes, p.Code)
	}
	if n := len(codes); n > 0 && codes[n-1] == ma.P_P2P {
		codes = codes[:n-1]
	}
	return codes
}

func isIPOrDNS(code int) bool {
	switch code {
	case ma.P_IP4, ma.P_IP6, ma.P_DNS, ma.P_DNS4, ma.P_DNS6:
		return true
	}
	return false
}

// IsTCPAddr 判断是否为纯 TCP 地址：/ip4/.../tcp/...
func IsTCPAddr(a ma.Multiaddr) bool {
	codes := transportCodes(a)
	return len(codes) == 2 && isIPOrDNS(codes[0]) && codes[1] == ma.P_TCP
}

// IsWebSocketAddr 判断是否为 WebSocket 地址：/ip4/.../tcp/.../ws
func IsWebSocketAddr(a ma.Multiaddr) bool {
	codes := transportCodes(a)
	return len(codes) == 3 && isIPOrDNS(codes[0]) && codes[1] == ma.P_TCP && codes[2] == ma.P_WS
}

// IsQUICAddr 判断是否为 QUIC v1 地址：/ip4/.../udp/.../quic-v1
func IsQUICAddr(a ma.Multiaddr) bool {
	codes := transportCodes(a)
	return len(codes) == 3 && isIPOrDNS(codes[0]) && codes[1] == ma.P_UDP && codes[2] == ma.P_QUIC_V1
}

// FilterAddrs 按谓词过滤地址，保持顺序
func FilterAddrs(addrs []ma.Multiaddr, keep func(ma.Multiaddr) bool) []ma.Multiaddr {
	out := make([]ma.Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
