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

package retrieval

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"chat-platform/internal/storage/cache"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

const (
	defaultWebEndpoint = "https://api.duckduckgo.com"
	defaultWebMaxChars = 8000
	webCacheTTL        = 10 * time.Minute
)

// WebSource 实时网页检索，调用 DuckDuckGo Instant Answer 接口
// 并把结果合成为一段有界文本。查询失败或无结果都归一为 Empty。
type WebSource struct {
	client   *resty.Client
	endpoint string
	maxChars int
	cache    cache.Store
	logger   *log.Logger
}

type webAnswer struct {
	AbstractText  string `json:"AbstractText"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// NewWebSource 创建网页检索来源。endpoint 为空用默认 DuckDuckGo，
// maxChars<=0 默认 8000，store 可为 nil 表示不缓存。
func NewWebSource(endpoint string, maxChars int, store cache.Store, logger *log.Logger) *WebSource {
	if endpoint == "" {
		endpoint = defaultWebEndpoint
	}
	if maxChars <= 0 {
		maxChars = defaultWebMaxChars
	}
	if logger == nil {
		logger = log.Nop()
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &WebSource{
		client:   client,
		endpoint: endpoint,
		maxChars: maxChars,
		cache:    store,
		logger:   logger,
	}
}

// Name 实现 Source
func (s *WebSource) Name() string { return "web" }

// Fetch 实现 Source。k 对网页检索无意义，结果始终是单段合成文本
func (s *WebSource) Fetch(ctx context.Context, query string, k int) Evidence {
	if s.cache != nil {
		var cached string
		if err := s.cache.Get(ctx, s.cacheKey(query), &cached); err == nil && cached != "" {
			metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeFound)).Inc()
			return Evidence{Outcome: OutcomeFound, Text: cached}
		}
	}

	text := s.lookup(ctx, query)
	if text == "" {
		metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeEmpty)).Inc()
		return Evidence{Outcome: OutcomeEmpty}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey(query), text, webCacheTTL); err != nil {
			s.logger.Warn("cache web result failed", "error", err)
		}
	}
	metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeFound)).Inc()
	return Evidence{Outcome: OutcomeFound, Text: text}
}

func (s *WebSource) cacheKey(query string) string {
	return "websearch:" + query
}

// lookup 执行一次外部查询，任何失败都返回空串
func (s *WebSource) lookup(ctx context.Context, query string) string {
	response, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":       query,
			"format":  "json",
			"no_html": "1",
		}).
		Get(s.endpoint)
	if err != nil {
		s.logger.Warn("web search request failed", "error", err)
		return ""
	}
	if response.StatusCode() != 200 {
		s.logger.Warn("web search returned non-200", "status", response.StatusCode())
		return ""
	}

	var answer webAnswer
	if err := json.Unmarshal(response.Body(), &answer); err != nil {
		s.logger.Warn("decode web search response failed", "error", err)
		return ""
	}

	var parts []string
	if answer.Answer != "" {
		parts = append(parts, answer.Answer)
	}
	if answer.AbstractText != "" {
		parts = append(parts, answer.AbstractText)
	}
	for _, topic := range answer.RelatedTopics {
		if topic.Text != "" {
			parts = append(parts, topic.Text)
		}
	}

	return s.normalize(strings.Join(parts, " "))
}

// normalize 折叠空白并截断到 maxChars 个字符
func (s *WebSource) normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > s.maxChars {
		runes = runes[:s.maxChars]
	}
	return string(runes)
}
