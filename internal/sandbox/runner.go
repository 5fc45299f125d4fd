// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"chat-platform/pkg/metrics"
)

const defaultRunTimeout = 10 * time.Second

// Runner 在独立子进程里执行代码片段。子进程跑隔离的解释器，
// 环境变量清空，超时后整个进程被杀掉。
type Runner struct {
	bin     string
	timeout time.Duration
}

// NewRunner 创建 Runner，bin 是 sandbox 可执行文件路径，timeout<=0 默认 10s
func NewRunner(bin string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Runner{bin: bin, timeout: timeout}
}

// Run 执行 source 并返回捕获的输出。执行出错时返回错误文本而不是 error，
// 调用方把它原样作为回答展示；error 只在沙箱本身无法启动时出现。
func (r *Runner) Run(ctx context.Context, source string) (string, error) {
	if r.bin == "" {
		return "", errors.New("sandbox binary not configured")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.bin)
	cmd.Env = []string{}
	cmd.Dir = "/"
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		metrics.SandboxRunTotal.WithLabelValues("timeout").Inc()
		return "执行超时，已终止", nil
	}
	if err != nil {
		metrics.SandboxRunTotal.WithLabelValues("error").Inc()
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "执行出错: " + msg, nil
	}

	metrics.SandboxRunTotal.WithLabelValues("ok").Inc()
	return strings.TrimSpace(stdout.String()), nil
}
