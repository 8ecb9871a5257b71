package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/pkg/lib/log"
)

var logger = log.Logger("core/identity")

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config

	// Identity 直接注入的身份（WithIdentity 场景），优先于密钥文件
	Identity *Identity `name:"preset_identity" optional:"true"`
}

// ProvideIdentity 提供节点身份
func ProvideIdentity(input ModuleInput) (*Identity, error) {
	if input.Identity != nil {
		return input.Identity, nil
	}
	return LoadOrCreate(input.Config.Identity.KeyFile, input.Config.Identity.AutoGenerate)
}

// Module 身份模块
var Module = fx.Module("identity",
	fx.Provide(ProvideIdentity),
)
