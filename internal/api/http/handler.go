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
	"bytes"
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"chat-platform/internal/agent"
	"chat-platform/internal/memory"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

// Handler HTTP 处理器
type Handler struct {
	sessions *SessionManager
	policy   *agent.SearchPolicy
	longTerm *memory.LongTerm
	indexed  bool
	logger   *log.Logger
	started  time.Time
}

// NewHandler 创建 HTTP 处理器。indexedAvailable 标记本地内容索引是否已构建，
// 只用于状态接口展示。
func NewHandler(sessions *SessionManager, policy *agent.SearchPolicy, longTerm *memory.LongTerm, indexedAvailable bool, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{
		sessions: sessions,
		policy:   policy,
		longTerm: longTerm,
		indexed:  indexedAvailable,
		logger:   logger,
		started:  time.Now(),
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// Chat 处理一次对话请求
func (h *Handler) Chat(ctx context.Context, c *app.RequestContext) {
	var req chatRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "请求体不是合法的 JSON"})
		return
	}
	if req.Query == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "query 不能为空"})
		return
	}

	session, err := h.sessions.GetOrCreate(req.SessionID)
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": "创建会话失败"})
		return
	}
	result := session.Route(ctx, req.Query)

	c.JSON(consts.StatusOK, map[string]interface{}{
		"session_id": session.ID,
		"intent":     string(result.Intent),
		"answer":     result.Answer,
	})
}

// AuditLog 返回某会话的审计记录
func (h *Handler) AuditLog(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "缺少会话 ID"})
		return
	}

	session, err := h.sessions.GetOrCreate(sessionID)
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": "创建会话失败"})
		return
	}
	entries, err := session.router.AuditLog(ctx, 200)
	if err != nil {
		h.logger.Warn("load audit log failed", "session_id", sessionID, "error", err)
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": "读取审计日志失败"})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"entries":    entries,
	})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "chat-api",
	})
}

// SystemStatus 运行状态
func (h *Handler) SystemStatus(ctx context.Context, c *app.RequestContext) {
	longTermRecords := 0
	if h.longTerm != nil {
		longTermRecords = h.longTerm.Size()
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"web_search_enabled": h.policy.WebEnabled(),
		"index_available":    h.indexed,
		"sessions":           h.sessions.Count(),
		"longterm_records":   longTermRecords,
		"uptime_seconds":     int(time.Since(h.started).Seconds()),
	})
}

type webSearchRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetWebSearch 修改网页检索开关，立即对所有在途请求可见
func (h *Handler) SetWebSearch(ctx context.Context, c *app.RequestContext) {
	var req webSearchRequest
	if err := c.BindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "需要 enabled 字段"})
		return
	}

	h.policy.SetWebEnabled(*req.Enabled)
	h.logger.Info("web search toggled", "enabled", *req.Enabled)
	c.JSON(consts.StatusOK, map[string]interface{}{
		"web_search_enabled": h.policy.WebEnabled(),
	})
}

// Metrics 输出 Prometheus 文本格式指标
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
