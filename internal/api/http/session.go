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

package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-platform/internal/agent"
)

// RouterFactory 按会话 ID 组装一个编排器
type RouterFactory func(sessionID string) (*agent.Router, error)

// Session 一个会话及其编排器。短期记忆缓冲不允许并发修改，
// 同会话的请求在这里用互斥锁串行化。
type Session struct {
	ID         string
	router     *agent.Router
	mu         sync.Mutex
	lastActive time.Time
}

// Route 串行执行一次路由
func (s *Session) Route(ctx context.Context, query string) agent.RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return s.router.Route(ctx, query)
}

// SessionManager 管理活跃会话，按需创建编排器
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  RouterFactory
}

// NewSessionManager 创建会话管理器
func NewSessionManager(factory RouterFactory) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// GetOrCreate 返回 id 对应的会话，id 为空时新建会话并分配 ID
func (m *SessionManager) GetOrCreate(id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	router, err := m.factory(id)
	if err != nil {
		return nil, err
	}
	s = &Session{
		ID:         id,
		router:     router,
		lastActive: time.Now(),
	}
	m.sessions[id] = s
	return s, nil
}

// Count 返回活跃会话数
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
