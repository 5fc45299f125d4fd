package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 这些用例用系统自带的可执行文件代替真正的沙箱二进制，
// 只验证子进程编排本身：输入输出、失败归一、超时终止。

func TestRunnerCapturesOutput(t *testing.T) {
	r := NewRunner("/bin/cat", 5*time.Second)

	out, err := r.Run(context.Background(), "hello sandbox")
	require.NoError(t, err)
	assert.Equal(t, "hello sandbox", out)
}

func TestRunnerFailureBecomesText(t *testing.T) {
	r := NewRunner("/bin/false", 5*time.Second)

	out, err := r.Run(context.Background(), "whatever")
	require.NoError(t, err)
	assert.Contains(t, out, "执行出错")
}

func TestRunnerTimeout(t *testing.T) {
	r := NewRunner("/bin/sh", 50*time.Millisecond)

	out, err := r.Run(context.Background(), "while :; do :; done")
	require.NoError(t, err)
	assert.Contains(t, out, "超时")
}

func TestRunnerUnconfigured(t *testing.T) {
	r := NewRunner("", time.Second)

	_, err := r.Run(context.Background(), "1+2")
	assert.Error(t, err)
}
