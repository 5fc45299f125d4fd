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

	"chat-platform/internal/memory"
	"chat-platform/internal/model/llm"
	"chat-platform/internal/retrieval"
	"chat-platform/internal/sandbox"
	"chat-platform/internal/splitter"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

// Flavor 响应器类型
type Flavor string

const (
	FlavorKnowledge Flavor = "knowledge"
	FlavorExplain   Flavor = "explain"
	FlavorCode      Flavor = "code"
)

const (
	defaultFlushThreshold = 8
	noResultAnswer        = "抱歉，没有检索到相关结果，请换个问题试试。"
	generateFailedAnswer  = "抱歉，生成回答时出现问题，请稍后再试。"
)

var roleInstructions = map[Flavor]string{
	FlavorKnowledge: "你是一个知识问答助手，优先依据给定资料回答用户问题，资料不足时如实说明。",
	FlavorExplain:   "你是一个讲解助手，用清晰易懂的语言解释用户询问的概念或内容。",
	FlavorCode:      "你是一个编程助手，为用户编写代码或解释代码行为，必要时给出示例。",
}

// ResponderOptions 组装一个响应器所需的协作方，按 Flavor 取用
type ResponderOptions struct {
	Flavor         Flavor
	Client         llm.Client
	ShortTerm      *memory.ShortTerm
	LongTerm       *memory.LongTerm
	Indexed        *retrieval.IndexedSource
	Web            retrieval.Source
	Policy         *SearchPolicy
	Sandbox        *sandbox.Runner
	RetrieveK      int
	FlushThreshold int
	WindowRunes    int
	Logger         *log.Logger
}

// Responder 单个响应器。一次调用走一条线性状态链：
// 记用户轮次、解析上下文、生成、记助手轮次、视情况转存长期记忆。
// 同一个 Responder 绑定一个会话的记忆缓冲，并发调用需由上层串行化。
type Responder struct {
	flavor         Flavor
	client         llm.Client
	shortTerm      *memory.ShortTerm
	longTerm       *memory.LongTerm
	indexed        *retrieval.IndexedSource
	web            retrieval.Source
	policy         *SearchPolicy
	sandbox        *sandbox.Runner
	retrieveK      int
	flushThreshold int
	windowRunes    int
	logger         *log.Logger
}

// NewResponder 创建响应器
func NewResponder(opts ResponderOptions) *Responder {
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = defaultFlushThreshold
	}
	if opts.RetrieveK <= 0 {
		opts.RetrieveK = 4
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Responder{
		flavor:         opts.Flavor,
		client:         opts.Client,
		shortTerm:      opts.ShortTerm,
		longTerm:       opts.LongTerm,
		indexed:        opts.Indexed,
		web:            opts.Web,
		policy:         opts.Policy,
		sandbox:        opts.Sandbox,
		retrieveK:      opts.RetrieveK,
		flushThreshold: opts.FlushThreshold,
		windowRunes:    opts.WindowRunes,
		logger:         opts.Logger,
	}
}

// Flavor 返回响应器类型
func (r *Responder) Flavor() Flavor { return r.flavor }

// Run 处理一次查询并返回回答文本。任何内部失败都归一为可展示的回答，不向上抛错。
func (r *Responder) Run(ctx context.Context, query string) string {
	start := time.Now()
	defer func() {
		metrics.ResponderDuration.WithLabelValues(string(r.flavor)).Observe(time.Since(start).Seconds())
	}()

	r.shortTerm.Append("user", query)

	var answer string
	switch r.flavor {
	case FlavorKnowledge:
		answer = r.runKnowledge(ctx, query)
	case FlavorExplain:
		answer = r.runExplain(ctx, query)
	case FlavorCode:
		answer = r.runCode(ctx, query)
	default:
		answer = r.generate(ctx, query, "")
	}

	r.shortTerm.Append("assistant", answer)
	r.maybeFlush(ctx)
	return answer
}

// runKnowledge 网页开关打开时强制走网页检索，无结果直接返回固定回答；
// 关闭时先试本地索引，索引不可用或无结果则退化为直接生成。
func (r *Responder) runKnowledge(ctx context.Context, query string) string {
	if r.policy != nil && r.policy.WebEnabled() && r.web != nil {
		ev := r.web.Fetch(ctx, query, r.retrieveK)
		if !ev.Found() {
			return noResultAnswer
		}
		return r.generate(ctx, query, r.condenseWebText(ctx, ev.Text))
	}

	if r.indexed != nil {
		ev := r.indexed.Fetch(ctx, query, r.retrieveK)
		if ev.Found() {
			return r.generate(ctx, query, renderPassages(ev.Passages))
		}
	}
	return r.generate(ctx, query, r.recallLongTerm(ctx, query))
}

// runExplain 总是先试本地索引，任何失败都静默退回直接生成
func (r *Responder) runExplain(ctx context.Context, query string) string {
	if r.indexed != nil {
		ev := r.indexed.Fetch(ctx, query, r.retrieveK)
		if ev.Found() {
			return r.generate(ctx, query, renderPassages(ev.Passages))
		}
	}
	return r.generate(ctx, query, "")
}

// runCode 带执行标记的围栏代码块送进沙箱，其余原样交给 LLM
func (r *Responder) runCode(ctx context.Context, query string) string {
	if code, ok := sandbox.ExtractFencedCode(query); ok && r.sandbox != nil {
		out, err := r.sandbox.Run(ctx, code)
		if err != nil {
			r.logger.Error("sandbox unavailable", "error", err)
			return generateFailedAnswer
		}
		if out == "" {
			out = "（无输出）"
		}
		return out
	}
	return r.generate(ctx, query, "")
}

// generate 组装提示词并调用 LLM，失败时返回固定的错误回答
func (r *Responder) generate(ctx context.Context, query, evidence string) string {
	var b strings.Builder
	b.WriteString(roleInstructions[r.flavor])
	b.WriteString("\n\n")

	if history := r.shortTerm.Context(); history != "" {
		b.WriteString("对话历史：\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}
	if evidence != "" {
		b.WriteString("参考资料：\n")
		b.WriteString(evidence)
		b.WriteString("\n\n")
	}
	b.WriteString("用户问题：")
	b.WriteString(query)

	start := time.Now()
	answer, err := r.client.GenerateWithContext(ctx, b.String(), llm.GenerateOptions{})
	metrics.LLMCallDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallFailTotal.WithLabelValues("generate").Inc()
		r.logger.Warn("generate answer failed", "flavor", r.flavor, "error", err)
		return generateFailedAnswer
	}
	return answer
}

// condenseWebText 网页文本超过一个窗口时逐窗口摘要后拼接，压缩提示词体积。
// 摘要失败的窗口保留原文。
func (r *Responder) condenseWebText(ctx context.Context, text string) string {
	windows := splitter.Windows(text, r.windowRunes)
	if len(windows) <= 1 {
		return text
	}

	summaries := make([]string, 0, len(windows))
	for _, window := range windows {
		start := time.Now()
		summary, err := r.client.GenerateWithContext(ctx,
			"请将下面的网页文本压缩为要点摘要：\n\n"+window, llm.GenerateOptions{})
		metrics.LLMCallDuration.WithLabelValues("summarize").Observe(time.Since(start).Seconds())
		if err != nil || summary == "" {
			if err != nil {
				metrics.LLMCallFailTotal.WithLabelValues("summarize").Inc()
			}
			summary = window
		}
		summaries = append(summaries, summary)
	}
	return strings.Join(summaries, "\n")
}

// recallLongTerm 显式查询长期记忆作为直接生成的补充上下文
func (r *Responder) recallLongTerm(ctx context.Context, query string) string {
	if r.longTerm == nil || r.longTerm.Size() == 0 {
		return ""
	}
	summaries, err := r.longTerm.Query(ctx, query, 0)
	if err != nil {
		r.logger.Warn("query long term memory failed", "error", err)
		return ""
	}
	return strings.Join(summaries, "\n")
}

// maybeFlush 短期缓冲达到阈值时整体转存长期记忆并清空，短长耦合只有这一处
func (r *Responder) maybeFlush(ctx context.Context) {
	if r.longTerm == nil || r.shortTerm.Size() < r.flushThreshold {
		return
	}
	if err := r.longTerm.Commit(ctx, r.shortTerm.Context()); err != nil {
		// 尽力而为，这一段对话可能丢失
		r.logger.Warn("flush short term memory failed", "error", err)
	}
	r.shortTerm.Clear()
}

func renderPassages(passages []retrieval.Passage) string {
	lines := make([]string, len(passages))
	for i, p := range passages {
		lines[i] = fmt.Sprintf("%d. %s", i+1, p.Text)
	}
	return strings.Join(lines, "\n")
}
