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
	"strings"
)

// Intent 查询意图，决定路由到哪个响应器
type Intent string

const (
	IntentRetrieve Intent = "retrieve"
	IntentExplain  Intent = "explain"
	IntentCode     Intent = "code"
	IntentOther    Intent = "other"
)

// ParseIntent 将字符串解析为 Intent，不识别的返回 false
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentRetrieve, IntentExplain, IntentCode, IntentOther:
		return Intent(s), true
	}
	return "", false
}

// 关键词启发式用的线索词，中英文混排
var (
	codeKeywords = []string{
		"代码", "函数", "写一个", "实现", "报错", "bug", "debug",
		"code", "function", "implement", "compile", "脚本", "```",
	}
	explainKeywords = []string{
		"解释", "说明", "为什么", "什么意思", "原理", "区别",
		"explain", "why", "how does", "what does", "difference",
	}
	retrieveKeywords = []string{
		"查", "检索", "资料", "文档", "是什么", "搜索", "最新",
		"search", "find", "look up", "what is", "latest",
	}
)

// HeuristicIntent 对原始查询做关键词匹配，无命中时返回 false。
// 代码线索优先于解释线索，解释优先于检索，避免"解释这段代码"被判成 explain 之外的意图。
func HeuristicIntent(query string) (Intent, bool) {
	q := strings.ToLower(query)

	for _, kw := range codeKeywords {
		if strings.Contains(q, kw) {
			return IntentCode, true
		}
	}
	for _, kw := range explainKeywords {
		if strings.Contains(q, kw) {
			return IntentExplain, true
		}
	}
	for _, kw := range retrieveKeywords {
		if strings.Contains(q, kw) {
			return IntentRetrieve, true
		}
	}
	return "", false
}
