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

	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

// RouteResult 一次路由的归一化结果，Answer 永远有值（可能为空串）
type RouteResult struct {
	Intent Intent `json:"intent"`
	Answer string `json:"answer"`
}

// Router 编排器。持有分类器与三个响应器，按意图分发查询，
// 并把问与答记入自己的审计日志。
type Router struct {
	classifier *Classifier
	responders map[Intent]*Responder
	audit      AuditStore
	sessionID  string
	logger     *log.Logger
}

// NewRouter 创建编排器。other 意图没有专属响应器，落到 knowledge，
// 保持"优先有依据的回答"的默认行为。
func NewRouter(classifier *Classifier, knowledge, explain, code *Responder, audit AuditStore, sessionID string, logger *log.Logger) *Router {
	if audit == nil {
		audit = NewAuditStoreMem()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Router{
		classifier: classifier,
		responders: map[Intent]*Responder{
			IntentRetrieve: knowledge,
			IntentExplain:  explain,
			IntentCode:     code,
			IntentOther:    knowledge,
		},
		audit:     audit,
		sessionID: sessionID,
		logger:    logger,
	}
}

// Route 分类、分发并返回归一化结果
func (r *Router) Route(ctx context.Context, query string) RouteResult {
	intent := r.classifier.Classify(ctx, query)
	metrics.RouteTotal.WithLabelValues(string(intent)).Inc()

	if err := r.audit.Append(ctx, &AuditEntry{
		SessionID: r.sessionID,
		Role:      "user",
		Content:   query,
		Intent:    string(intent),
	}); err != nil {
		r.logger.Warn("append audit entry failed", "error", err)
	}

	responder := r.responders[intent]
	answer := responder.Run(ctx, query)

	if err := r.audit.Append(ctx, &AuditEntry{
		SessionID: r.sessionID,
		Role:      "assistant",
		Content:   answer,
		Intent:    string(intent),
	}); err != nil {
		r.logger.Warn("append audit entry failed", "error", err)
	}

	return RouteResult{Intent: intent, Answer: answer}
}

// SessionID 返回会话标识
func (r *Router) SessionID() string { return r.sessionID }

// AuditLog 返回本会话的审计记录
func (r *Router) AuditLog(ctx context.Context, limit int) ([]*AuditEntry, error) {
	return r.audit.ListBySession(ctx, r.sessionID, limit)
}
