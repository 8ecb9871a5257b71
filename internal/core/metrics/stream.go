package metrics

import (
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
	"github.com/dep2p/go-dep2p-swarm/pkg/types"
)

// meteredStream 统计读写字节数的流
type meteredStream struct {
	interfaces.Stream
	proto  string
	tracer *Tracer
}

// MeterStream 包装流以统计字节数
//
// t 为 nil 时原样返回。
func (t *Tracer) MeterStream(s interfaces.Stream, proto types.ProtocolID) interfaces.Stream {
	if t == nil || s == nil {
		return s
	}
	return &meteredStream{Stream: s, proto: proto, tracer: t}
}

func (m *meteredStream) Read(p []byte) (int, error) {
	n, err := m.Stream.Read(p)
	m.tracer.AddStreamBytes(m.proto, DirectionIn, n)
	return n, err
}

func (m *meteredStream) Write(p []byte) (int, error) {
	n, err := m.Stream.Write(p)
	m.tracer.AddStreamBytes(m.proto, DirectionOut, n)
	return n, err
}
