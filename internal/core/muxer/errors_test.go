package muxer

import (
	"errors"
	"testing"

	goyamux "github.com/libp2p/go-yamux/v5"
	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name    string
		in      error
		want    error
		notWant error
	}{
		{"会话关闭", goyamux.ErrSessionShutdown, ErrConnClosed, ErrStreamReset},
		{"流重置", goyamux.ErrStreamReset, ErrStreamReset, ErrConnClosed},
		{"其他错误", other, other, ErrConnClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.in, "保留原始错误")
			assert.NotErrorIs(t, err, tt.notWant)
		})
	}

	assert.NoError(t, parseError(nil))
	t.Log("✅ yamux 错误转换正确")
}
