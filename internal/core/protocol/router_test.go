package protocol

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-swarm/pkg/interfaces"
)

const testTimeout = 5 * time.Second

// dispatchPair 返回拨号端连接，监听端在后台 Dispatch
func dispatchPair(t *testing.T, r *Router) net.Conn {
	t.Helper()
	dialer, listener := net.Pipe()
	go r.Dispatch(listener)
	t.Cleanup(func() { _ = dialer.Close() })
	return dialer
}

func echoHandler(s interfaces.Stream) {
	defer s.Close()
	_, _ = io.Copy(s, s)
}

func TestRouter_HandleAndProtocols(t *testing.T) {
	r := NewRouter(testTimeout)
	r.Handle("/b/1.0.0", echoHandler)
	r.Handle("/a/1.0.0", echoHandler)

	assert.Equal(t, []string{"/a/1.0.0", "/b/1.0.0"}, r.Protocols())

	r.Remove("/a/1.0.0")
	assert.Equal(t, []string{"/b/1.0.0"}, r.Protocols())
	_, ok := r.Handler("/a/1.0.0")
	assert.False(t, ok)
}

// TestRouter_Dispatch 协商成功后流交给处理器
func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(testTimeout)
	r.Handle("/echo/1.0.0", echoHandler)

	conn := dispatchPair(t, r)
	require.NoError(t, SelectProto(conn, "/echo/1.0.0", testTimeout))

	_, err := conn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	t.Log("✅ 协议分发成功")
}

// TestRouter_NotSupportedThenRetry 不支持的协议返回错误，同一会话可继续协商
func TestRouter_NotSupportedThenRetry(t *testing.T) {
	r := NewRouter(testTimeout)
	r.Handle("/echo/1.0.0", echoHandler)

	conn := dispatchPair(t, r)
	sel := NewSelector(conn, testTimeout)

	err := sel.Select("/missing/1.0.0")
	assert.ErrorIs(t, err, ErrProtocolNotSupported)
	assert.True(t, sel.Started())

	err = sel.Select("/also-missing/1.0.0")
	assert.ErrorIs(t, err, ErrProtocolNotSupported)

	require.NoError(t, sel.Select("/echo/1.0.0"))

	_, err = conn.Write([]byte("ok"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf))

	t.Log("✅ 同一会话上依次协商成功")
}

// TestRouter_Overwrite 后注册的处理器生效
func TestRouter_Overwrite(t *testing.T) {
	r := NewRouter(testTimeout)
	called := make(chan string, 2)
	r.Handle("/p/1.0.0", func(s interfaces.Stream) {
		called <- "first"
		_ = s.Close()
	})
	r.Handle("/p/1.0.0", func(s interfaces.Stream) {
		called <- "second"
		_ = s.Close()
	})

	conn := dispatchPair(t, r)
	require.NoError(t, SelectProto(conn, "/p/1.0.0", testTimeout))

	select {
	case who := <-called:
		assert.Equal(t, "second", who)
	case <-time.After(testTimeout):
		t.Fatal("处理器未被调用")
	}
	assert.Len(t, r.Protocols(), 1)
}

// TestRouter_DispatchGarbage 非法握手时关闭流
func TestRouter_DispatchGarbage(t *testing.T) {
	r := NewRouter(testTimeout)
	r.Handle("/echo/1.0.0", echoHandler)

	dialer, listener := net.Pipe()
	defer dialer.Close()

	done := make(chan struct{})
	go func() {
		r.Dispatch(listener)
		close(done)
	}()

	// 读取监听端发送的协议头，再发送非法数据
	go func() { _, _ = io.Copy(io.Discard, dialer) }()
	_, _ = dialer.Write([]byte{0x05, 'h', 'e', 'l', 'l', 'o'})

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("非法握手后 Dispatch 未返回")
	}
}

// TestRouter_DispatchTimeout 对端不发送任何数据时超时关闭
func TestRouter_DispatchTimeout(t *testing.T) {
	r := NewRouter(50 * time.Millisecond)
	dialer, listener := net.Pipe()
	defer dialer.Close()
	go func() { _, _ = io.Copy(io.Discard, dialer) }()

	done := make(chan struct{})
	go func() {
		r.Dispatch(listener)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("协商超时未生效")
	}
}

// TestRouter_IdleBetweenRounds 回复后空闲等待不受协商超时限制
func TestRouter_IdleBetweenRounds(t *testing.T) {
	r := NewRouter(100 * time.Millisecond)
	r.Handle("/echo/1.0.0", echoHandler)

	conn := dispatchPair(t, r)
	sel := NewSelector(conn, testTimeout)

	err := sel.Select("/missing/1.0.0")
	require.ErrorIs(t, err, ErrProtocolNotSupported)

	// 超过协商超时的空闲
	time.Sleep(400 * time.Millisecond)

	require.NoError(t, sel.Select("/echo/1.0.0"))
	_, err = conn.Write([]byte("idle"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "idle", string(buf))

	t.Log("✅ 空闲会话保持可协商")
}

// TestRouter_StalledTokenTimesOut 请求只发送一部分时按超时关闭
func TestRouter_StalledTokenTimesOut(t *testing.T) {
	r := NewRouter(100 * time.Millisecond)
	r.Handle("/echo/1.0.0", echoHandler)

	dialer, listener := net.Pipe()
	defer dialer.Close()

	done := make(chan struct{})
	go func() {
		r.Dispatch(listener)
		close(done)
	}()

	sel := NewSelector(dialer, testTimeout)
	require.ErrorIs(t, sel.Select("/missing/1.0.0"), ErrProtocolNotSupported)

	// 长度前缀声明 16 字节，只发送 1 字节
	_, err := dialer.Write([]byte{0x10, 'a'})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("不完整的请求未超时")
	}

	t.Log("✅ 请求内超时生效")
}
