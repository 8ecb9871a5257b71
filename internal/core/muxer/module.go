package muxer

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer/yamux"
	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

// Params 模块输入依赖
type Params struct {
	fx.In

	Config *config.Config
}

// NewFromConfig 按偏好顺序创建编解码工厂
func NewFromConfig(cfg config.MuxerConfig) ([]interfaces.StreamMuxer, error) {
	out := make([]interfaces.StreamMuxer, 0, len(cfg.Codecs))
	for _, codec := range cfg.Codecs {
		switch codec {
		case ID:
			out = append(out, NewTransport(Config{
				MaxStreamWindowSize: cfg.MaxStreamWindowSize,
				EnableKeepAlive:     cfg.EnableKeepAlive,
				KeepAliveInterval:   cfg.KeepAliveInterval.Duration(),
			}))
		case yamux.ID:
			out = append(out, yamux.NewFactory(yamux.Config{
				MaxStreamWindowSize: cfg.MaxStreamWindowSize,
				EnableKeepAlive:     cfg.EnableKeepAlive,
				KeepAliveInterval:   cfg.KeepAliveInterval.Duration(),
			}))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
		}
	}
	return out, nil
}

// ProvideMuxers 提供有序的编解码列表
func ProvideMuxers(p Params) ([]interfaces.StreamMuxer, error) {
	return NewFromConfig(p.Config.Muxer)
}

// Module 多路复用模块
var Module = fx.Module("muxer",
	fx.Provide(ProvideMuxers),
)
