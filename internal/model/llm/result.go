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

package llm

import (
	"encoding/json"
	"strings"
)

// CompletionKind 响应形态标签
type CompletionKind int

const (
	// KindText 带直接文本字段的响应
	KindText CompletionKind = iota
	// KindCandidates 带候选列表的响应（Gemini candidates / OpenAI choices）
	KindCandidates
	// KindMap 带常规结果键的键值映射（answer/result/output/output_text）
	KindMap
	// KindRaw 无法识别的形态，保底按字符串处理
	KindRaw
)

// 常规结果键，按优先级排列
var conventionalKeys = []string{"answer", "result", "output", "output_text"}

// Completion LLM 返回结果的统一形态。
// 各客户端在自己的边界把 provider 响应解码成 Completion，
// 下游只通过 Text 取纯文本，不再各处猜测响应结构。
type Completion struct {
	Kind       CompletionKind
	text       string
	candidates []string
	fields     map[string]string
	raw        string
}

// TextCompletion 直接用文本构造 Completion（测试桩与本地实现用）
func TextCompletion(s string) Completion {
	return Completion{Kind: KindText, text: s}
}

// DecodeCompletion 把任意 LLM 响应体解码为 Completion。
// 识别顺序：直接文本字段 → 候选列表 → 常规结果键 → 保底字符串。
func DecodeCompletion(body []byte) Completion {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return Completion{Kind: KindRaw, raw: string(body)}
	}

	if raw, ok := m["text"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return Completion{Kind: KindText, text: s}
		}
	}

	if raw, ok := m["candidates"]; ok {
		if cands := decodeGeminiCandidates(raw); len(cands) > 0 {
			return Completion{Kind: KindCandidates, candidates: cands}
		}
	}
	if raw, ok := m["choices"]; ok {
		if cands := decodeOpenAIChoices(raw); len(cands) > 0 {
			return Completion{Kind: KindCandidates, candidates: cands}
		}
	}

	fields := make(map[string]string)
	for _, key := range conventionalKeys {
		if raw, ok := m[key]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				fields[key] = s
			}
		}
	}
	if len(fields) > 0 {
		return Completion{Kind: KindMap, fields: fields}
	}

	return Completion{Kind: KindRaw, raw: string(body)}
}

// Text 按识别顺序提取纯文本
func (c Completion) Text() string {
	switch c.Kind {
	case KindText:
		return c.text
	case KindCandidates:
		if len(c.candidates) > 0 {
			return c.candidates[0]
		}
		return ""
	case KindMap:
		for _, key := range conventionalKeys {
			if v, ok := c.fields[key]; ok {
				return v
			}
		}
		return ""
	default:
		return c.raw
	}
}

// Empty 判断是否没有可用文本
func (c Completion) Empty() bool {
	return strings.TrimSpace(c.Text()) == ""
}

func decodeGeminiCandidates(raw json.RawMessage) []string {
	var cands []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &cands); err != nil {
		return nil
	}
	var out []string
	for _, cand := range cands {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			out = append(out, sb.String())
		}
	}
	return out
}

func decodeOpenAIChoices(raw json.RawMessage) []string {
	var choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &choices); err != nil {
		return nil
	}
	var out []string
	for _, ch := range choices {
		if ch.Message.Content != "" {
			out = append(out, ch.Message.Content)
		} else if ch.Text != "" {
			out = append(out, ch.Text)
		}
	}
	return out
}
