package identity

import (
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const pemTypeEd25519Private = "ED25519 PRIVATE KEY"

// Save 以 PEM 格式保存私钥（权限 0600）
func (i *Identity) Save(path string) error {
	data := pem.EncodeToMemory(&pem.Block{
		Type:  pemTypeEd25519Private,
		Bytes: i.priv.Seed(),
	})
	return atomicWriteFile(path, data, 0o600)
}

// Load 从 PEM 文件加载身份
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeEd25519Private {
		return nil, ErrInvalidPEM
	}
	if len(block.Bytes) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	return FromPrivateKey(ed25519.NewKeyFromSeed(block.Bytes))
}

// LoadOrCreate 加载身份，文件不存在且允许时生成并保存
//
// path 为空时返回临时身份。
func LoadOrCreate(path string, autoGenerate bool) (*Identity, error) {
	if path == "" {
		return Generate()
	}

	id, err := Load(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrKeyNotFound) || !autoGenerate {
		return nil, fmt.Errorf("加载身份失败: %w", err)
	}

	id, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, fmt.Errorf("保存身份失败: %w", err)
	}
	logger.Info("已生成新身份", "peer", id.ID().ShortString(), "path", path)
	return id, nil
}

// atomicWriteFile 临时文件 + rename 的原子写
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("重命名失败: %w", err)
	}
	success = true
	return nil
}
