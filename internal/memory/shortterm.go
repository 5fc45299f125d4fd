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

package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chat-platform/pkg/log"
)

const defaultCapacity = 5

// Turn 一轮对话消息，入缓冲后不再修改
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ShortTerm 短期记忆：固定容量的 FIFO 轮次缓冲，每次变更后同步落盘。
// 落盘失败只记日志不report给调用方，进程内以内存状态为准。
// 并发约束：同一个缓冲对应一个会话，调用方需串行化同会话的请求。
type ShortTerm struct {
	mu       sync.RWMutex
	turns    []Turn
	capacity int
	path     string
	logger   *log.Logger
}

// NewShortTerm 创建短期记忆，capacity<=0 时默认 5。
// path 存在时加载历史并截断到最近 capacity 条，加载失败则从空缓冲开始。
func NewShortTerm(path string, capacity int, logger *log.Logger) *ShortTerm {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = log.Nop()
	}

	s := &ShortTerm{
		capacity: capacity,
		path:     path,
		logger:   logger,
	}
	s.load()
	return s
}

// Append 追加一轮对话，超容量时淘汰最旧的一条，并同步落盘
func (s *ShortTerm) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(s.turns) > s.capacity {
		s.turns = s.turns[len(s.turns)-s.capacity:]
	}
	s.persist()
}

// Context 将缓冲按时间顺序渲染为提示词上下文，每轮一行 "{role}: {content}"
func (s *ShortTerm) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, len(s.turns))
	for i, t := range s.turns {
		lines[i] = fmt.Sprintf("%s: %s", t.Role, t.Content)
	}
	return strings.Join(lines, "\n")
}

// History 返回当前缓冲的轮次副本，按追加顺序
func (s *ShortTerm) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear 清空缓冲并落盘空状态
func (s *ShortTerm) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.persist()
}

// Size 返回当前轮次数
func (s *ShortTerm) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// load 从磁盘加载历史，任何失败都退回空缓冲
func (s *ShortTerm) load() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("load short term memory failed", "path", s.path, "error", err)
		}
		return
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		s.logger.Warn("decode short term memory failed", "path", s.path, "error", err)
		return
	}

	if len(turns) > s.capacity {
		turns = turns[len(turns)-s.capacity:]
	}
	s.turns = turns
}

// persist 同步写盘，调用方需已持有写锁
func (s *ShortTerm) persist() {
	if s.path == "" {
		return
	}

	turns := s.turns
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		s.logger.Warn("encode short term memory failed", "error", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Warn("create memory dir failed", "dir", dir, "error", err)
			return
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("persist short term memory failed", "path", s.path, "error", err)
	}
}
