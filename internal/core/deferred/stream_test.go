package deferred

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStream_WritesBeforeBind 绑定前写入按序回放
func TestStream_WritesBeforeBind(t *testing.T) {
	s := New()
	local, remote := net.Pipe()
	defer remote.Close()

	for _, chunk := range []string{"a", "b", "c"} {
		n, err := s.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	received := make(chan string, 1)
	go func() {
		buf := make([]byte, 3)
		_, _ = io.ReadFull(remote, buf)
		received <- string(buf)
	}()

	require.NoError(t, s.Bind(local))

	select {
	case got := <-received:
		assert.Equal(t, "abc", got)
	case <-time.After(2 * time.Second):
		t.Fatal("远端未收到回放数据")
	}

	t.Log("✅ 绑定前写入按序到达")
}

// TestStream_WriteBufferCopied 缓存的是副本
func TestStream_WriteBufferCopied(t *testing.T) {
	s := New()
	local, remote := net.Pipe()
	defer remote.Close()

	buf := []byte("x")
	_, err := s.Write(buf)
	require.NoError(t, err)
	buf[0] = 'y'

	received := make(chan byte, 1)
	go func() {
		one := make([]byte, 1)
		_, _ = io.ReadFull(remote, one)
		received <- one[0]
	}()

	require.NoError(t, s.Bind(local))
	assert.Equal(t, byte('x'), <-received)
}

// TestStream_BindTwice 重复绑定返回错误
func TestStream_BindTwice(t *testing.T) {
	s := New()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	require.NoError(t, s.Bind(a))
	assert.ErrorIs(t, s.Bind(b), ErrAlreadyBound)
	assert.True(t, s.IsBound())
}

// TestStream_BindNil 绑定空流
func TestStream_BindNil(t *testing.T) {
	assert.ErrorIs(t, New().Bind(nil), ErrNilStream)
}

// TestStream_ReadBlocksUntilBound 读取在绑定前阻塞
func TestStream_ReadBlocksUntilBound(t *testing.T) {
	s := New()
	local, remote := net.Pipe()
	defer remote.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 5)
		n, _ := io.ReadFull(s, buf)
		got <- string(buf[:n])
	}()

	select {
	case <-got:
		t.Fatal("绑定前读取不应返回")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Bind(local))
	go func() { _, _ = remote.Write([]byte("hello")) }()

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("绑定后读取未返回")
	}
}

// TestStream_Fail 失败后读写返回错误
func TestStream_Fail(t *testing.T) {
	s := New()
	dialErr := errors.New("no route")

	readErr := make(chan error, 1)
	go func() {
		_, err := s.Read(make([]byte, 1))
		readErr <- err
	}()

	s.Fail(dialErr)

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, dialErr)
	case <-time.After(2 * time.Second):
		t.Fatal("失败后读取未返回")
	}

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, dialErr)
	assert.ErrorIs(t, s.Err(), dialErr)

	// 失败后不能再绑定
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	assert.ErrorIs(t, s.Bind(a), ErrAlreadyBound)

	// 重复 Fail 忽略
	s.Fail(errors.New("other"))
	assert.ErrorIs(t, s.Err(), dialErr)
}

// TestStream_CloseBeforeBind 绑定前关闭，绑定后底层连接被关闭
func TestStream_CloseBeforeBind(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)

	local, remote := net.Pipe()
	require.NoError(t, s.Bind(local))

	// 对端读到 EOF
	_, err = remote.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

// TestStream_Done 绑定后 Done 通道关闭
func TestStream_Done(t *testing.T) {
	s := New()
	select {
	case <-s.Done():
		t.Fatal("未绑定时 Done 不应关闭")
	default:
	}

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	require.NoError(t, s.Bind(a))

	select {
	case <-s.Done():
	default:
		t.Fatal("绑定后 Done 应关闭")
	}
}

// TestStream_ConcurrentWrites 绑定与写入并发时不丢数据
func TestStream_ConcurrentWrites(t *testing.T) {
	s := New()
	local, remote := net.Pipe()
	defer remote.Close()

	const total = 100
	received := make(chan int, 1)
	go func() {
		n, _ := io.ReadFull(remote, make([]byte, total))
		received <- n
	}()

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Write([]byte{'z'})
		}()
		if i == total/2 {
			require.NoError(t, s.Bind(local))
		}
	}
	wg.Wait()

	select {
	case n := <-received:
		assert.Equal(t, total, n)
	case <-time.After(5 * time.Second):
		t.Fatal("数据未全部到达")
	}
}
