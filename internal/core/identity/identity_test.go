package identity

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	assert.False(t, id.ID().IsEmpty())
	assert.True(t, id.ID().MatchesPublicKey(id.PublicKey()))

	sig := id.Sign([]byte("hello"))
	assert.True(t, ed25519.Verify(id.PublicKey(), []byte("hello"), sig))

	t.Log("✅ 身份生成成功")
}

func TestFromPrivateKey_InvalidSize(t *testing.T) {
	_, err := FromPrivateKey(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")

	id, err := Generate()
	require.NoError(t, err)
	require.NoError(t, id.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, id.ID(), loaded.ID())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.key"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	bad := filepath.Join(dir, "bad.key")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidPEM)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	// 不允许自动生成
	_, err := LoadOrCreate(path, false)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	first, err := LoadOrCreate(path, true)
	require.NoError(t, err)

	// 第二次加载同一身份
	second, err := LoadOrCreate(path, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())

	// 空路径返回临时身份
	tmp, err := LoadOrCreate("", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), tmp.ID())
}
