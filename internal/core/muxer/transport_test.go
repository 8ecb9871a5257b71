package muxer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/config"
	"github.com/dep2p/go-dep2p-swarm/internal/core/muxer/yamux"
)

func TestTransport_ID(t *testing.T) {
	assert.Equal(t, "/yamux/1.0.0", NewTransport(DefaultConfig()).ID())
}

// TestTransport_OpenAccept 客户端打开流，服务端接受并回显
func TestTransport_OpenAccept(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	c, s := testConnPair(t)

	client, err := tr.NewConn(c, false)
	require.NoError(t, err)
	defer client.Close()
	server, err := tr.NewConn(s, true)
	require.NoError(t, err)
	defer server.Close()

	go func() {
		st, err := server.AcceptStream()
		if err != nil {
			return
		}
		defer st.Close()
		_, _ = io.Copy(st, st)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := client.OpenStream(ctx)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Write([]byte("echo"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(st, buf)
	require.NoError(t, err)
	assert.Equal(t, "echo", string(buf))
	assert.GreaterOrEqual(t, client.NumStreams(), 1)

	t.Log("✅ go-yamux 打开与接受流成功")
}

// TestTransport_CloseChan 会话关闭后 CloseChan 关闭
func TestTransport_CloseChan(t *testing.T) {
	tr := NewTransport(DefaultConfig())
	c, s := testConnPair(t)

	client, err := tr.NewConn(c, false)
	require.NoError(t, err)
	server, err := tr.NewConn(s, true)
	require.NoError(t, err)
	defer server.Close()

	require.NoError(t, client.Close())
	assert.True(t, client.IsClosed())

	select {
	case <-server.CloseChan():
	case <-time.After(5 * time.Second):
		t.Fatal("对端会话未关闭")
	}

	_, err = client.OpenStream(context.Background())
	assert.ErrorIs(t, err, ErrConnClosed)
	assert.NotErrorIs(t, err, ErrStreamReset)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultMuxerConfig()
	cfg.Codecs = []string{config.MuxerYamuxHC, config.MuxerYamux}

	muxers, err := NewFromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, muxers, 2)
	assert.Equal(t, yamux.ID, muxers[0].ID())
	assert.Equal(t, ID, muxers[1].ID())

	cfg.Codecs = []string{"/mplex/6.7.0"}
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestNewFromConfig_Empty(t *testing.T) {
	cfg := config.DefaultMuxerConfig()
	cfg.Codecs = nil

	muxers, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Empty(t, muxers)
}
