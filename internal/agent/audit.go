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

package agent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEntry 编排层审计日志的一条记录，与响应器自己的记忆缓冲相互独立
type AuditEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditStore 审计日志存储
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*AuditEntry, error)
	Close()
}

// AuditStoreMem 内存实现，单进程部署与测试用
type AuditStoreMem struct {
	mu      sync.RWMutex
	entries []*AuditEntry
}

// NewAuditStoreMem 创建内存审计存储
func NewAuditStoreMem() *AuditStoreMem {
	return &AuditStoreMem{}
}

// Append 实现 AuditStore
func (s *AuditStoreMem) Append(ctx context.Context, entry *AuditEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = "audit-" + uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	clone := *entry
	s.entries = append(s.entries, &clone)
	s.mu.Unlock()
	return nil
}

// ListBySession 实现 AuditStore，按写入顺序返回
func (s *AuditStoreMem) ListBySession(ctx context.Context, sessionID string, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*AuditEntry
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			clone := *e
			out = append(out, &clone)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Close 实现 AuditStore
func (s *AuditStoreMem) Close() {}
