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
)

// Outcome 检索结果的三种状态
type Outcome string

const (
	// OutcomeFound 检索到可用证据
	OutcomeFound Outcome = "found"
	// OutcomeEmpty 检索执行了但没有可用结果，调用方需按"无证据"处理
	OutcomeEmpty Outcome = "empty"
	// OutcomeUnavailable 来源不可用（如索引从未构建），调用方应走降级路径
	OutcomeUnavailable Outcome = "unavailable"
)

// Passage 一条带相关度的检索片段
type Passage struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// Evidence 一次检索的完整结果。状态显式携带在 Outcome 里，
// 上游失败在来源内部吸收为 Empty 或 Unavailable，不向调用方抛错。
type Evidence struct {
	Outcome  Outcome
	Passages []Passage // 索引检索的有序片段，相关度高者在前
	Text     string    // 网页检索的合成文本
}

// Found 返回 Evidence 是否携带可用证据
func (e Evidence) Found() bool {
	return e.Outcome == OutcomeFound
}

// Source 检索来源抽象，索引检索与网页检索可互换
type Source interface {
	// Name 来源名，用于指标与日志
	Name() string
	// Fetch 对 query 做一次检索，返回至多 k 条证据
	Fetch(ctx context.Context, query string, k int) Evidence
}
