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
	"fmt"
	"strings"
	"time"

	"chat-platform/internal/model/llm"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

const classifyPromptTemplate = `你是一个意图分类器。判断下面用户问题的意图，只输出一个词：
retrieve（需要查资料回答）、explain（要求解释概念）、code（写代码或执行代码）、other（闲聊或其它）。

用户问题：%s

意图：`

// Classifier 意图分类器。LLM 判断优先，失败或结果不可识别时
// 退回关键词启发式，再不行默认 retrieve。对任何输入都给出一个意图。
type Classifier struct {
	client llm.Client
	logger *log.Logger
}

// NewClassifier 创建分类器，client 可为 nil 表示只用启发式
func NewClassifier(client llm.Client, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify 对 query 分类，永不失败
func (c *Classifier) Classify(ctx context.Context, query string) Intent {
	if intent, ok := c.classifyByLLM(ctx, query); ok {
		return intent
	}
	if intent, ok := HeuristicIntent(query); ok {
		return intent
	}
	// 系统偏向有依据的回答，默认走检索
	return IntentRetrieve
}

func (c *Classifier) classifyByLLM(ctx context.Context, query string) (Intent, bool) {
	if c.client == nil || query == "" {
		return "", false
	}

	start := time.Now()
	reply, err := c.client.GenerateWithContext(ctx, fmt.Sprintf(classifyPromptTemplate, query), llm.GenerateOptions{
		Temperature: 0,
		MaxTokens:   8,
	})
	metrics.LLMCallDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallFailTotal.WithLabelValues("classify").Inc()
		c.logger.Warn("classify by llm failed", "error", err)
		return "", false
	}

	fields := strings.Fields(strings.ToLower(reply))
	if len(fields) == 0 {
		return "", false
	}
	return ParseIntent(fields[0])
}
