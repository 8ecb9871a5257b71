package config

// IdentityConfig 身份配置
//
// 节点使用 Ed25519 密钥，PeerID 由公钥派生。
type IdentityConfig struct {
	// KeyFile 密钥文件路径
	// 为空时在内存中生成临时密钥
	KeyFile string `json:"key_file"`

	// AutoGenerate 密钥文件不存在时是否自动生成并保存
	AutoGenerate bool `json:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:      "",   // 默认空：临时身份，每次启动 PeerID 不同
		AutoGenerate: true, // 默认启用：首次启动时写入密钥文件
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	return nil
}

// WithKeyFile 设置密钥文件
func (c IdentityConfig) WithKeyFile(path string) IdentityConfig {
	c.KeyFile = path
	return c
}
