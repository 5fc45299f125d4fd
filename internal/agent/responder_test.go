package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-platform/internal/memory"
	"chat-platform/internal/model/embedding"
	"chat-platform/internal/retrieval"
	"chat-platform/internal/sandbox"
	"chat-platform/internal/splitter"
	"chat-platform/pkg/log"
)

// fakeWeb 固定返回某个 Evidence 的网页检索来源
type fakeWeb struct {
	evidence retrieval.Evidence
}

func (f *fakeWeb) Name() string { return "web" }

func (f *fakeWeb) Fetch(ctx context.Context, query string, k int) retrieval.Evidence {
	return f.evidence
}

func newTestLongTermForAgent(t *testing.T) *memory.LongTerm {
	t.Helper()
	m, err := memory.NewLongTerm(nil, embedding.NewHashEmbedder(32), "", "", 3, log.Nop())
	require.NoError(t, err)
	return m
}

func TestKnowledgeResponderWebEmptyReturnsFixedAnswer(t *testing.T) {
	shortTerm := memory.NewShortTerm("", 5, log.Nop())
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorKnowledge,
		Client:    &fakeLLM{reply: "should not be used"},
		ShortTerm: shortTerm,
		Web:       &fakeWeb{evidence: retrieval.Evidence{Outcome: retrieval.OutcomeEmpty}},
		Policy:    NewSearchPolicy(true),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "最新的围棋冠军是谁")
	assert.Equal(t, noResultAnswer, answer)

	// 固定回答也要进短期记忆
	h := shortTerm.History()
	require.Len(t, h, 2)
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "assistant", h[1].Role)
	assert.Equal(t, noResultAnswer, h[1].Content)
}

func TestKnowledgeResponderWebFoundFeedsGeneration(t *testing.T) {
	client := &fakeLLM{reply: "基于网页资料的回答"}
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorKnowledge,
		Client:    client,
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Web:       &fakeWeb{evidence: retrieval.Evidence{Outcome: retrieval.OutcomeFound, Text: "网页检索到的内容"}},
		Policy:    NewSearchPolicy(true),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "问题")
	assert.Equal(t, "基于网页资料的回答", answer)
	assert.Equal(t, 1, client.calls)
}

func TestKnowledgeResponderToggleOffUsesIndex(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewHashEmbedder(32)
	require.NoError(t, retrieval.BuildIndex(context.Background(),
		embedder, []splitter.Chunk{{ID: "1", Content: "本地索引里的一段资料"}}, dir))

	client := &fakeLLM{reply: "基于索引的回答"}
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorKnowledge,
		Client:    client,
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Indexed:   retrieval.NewIndexedSource(embedder, dir, log.Nop()),
		Web:       &fakeWeb{evidence: retrieval.Evidence{Outcome: retrieval.OutcomeFound, Text: "不应使用"}},
		Policy:    NewSearchPolicy(false),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "资料")
	assert.Equal(t, "基于索引的回答", answer)
}

func TestExplainResponderNoIndexFallsBackToDirect(t *testing.T) {
	client := &fakeLLM{reply: "直接生成的解释"}
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorExplain,
		Client:    client,
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Indexed:   retrieval.NewIndexedSource(embedding.NewHashEmbedder(32), t.TempDir(), log.Nop()),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "解释一下闭包")
	assert.Equal(t, "直接生成的解释", answer)
	assert.Equal(t, 1, client.calls)
}

func TestResponderGenerationFailureBecomesAnswer(t *testing.T) {
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorExplain,
		Client:    &fakeLLM{err: assert.AnError},
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "解释")
	assert.Equal(t, generateFailedAnswer, answer)
}

func TestResponderFlushAtThreshold(t *testing.T) {
	shortTerm := memory.NewShortTerm("", 5, log.Nop())
	longTerm := newTestLongTermForAgent(t)

	r := NewResponder(ResponderOptions{
		Flavor:         FlavorExplain,
		Client:         &fakeLLM{reply: "回答"},
		ShortTerm:      shortTerm,
		LongTerm:       longTerm,
		FlushThreshold: 2,
		Logger:         log.Nop(),
	})

	r.Run(context.Background(), "第一个问题")

	assert.Equal(t, 0, shortTerm.Size())
	assert.Equal(t, 1, longTerm.Size())
}

func TestCodeResponderRunsFencedBlock(t *testing.T) {
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorCode,
		Client:    &fakeLLM{reply: "不应调用 LLM"},
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Sandbox:   sandbox.NewRunner("/bin/cat", 0),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "```go\n1 + 2\n```")
	assert.Equal(t, "1 + 2", answer)
}

func TestCodeResponderPlainQueryGoesToLLM(t *testing.T) {
	client := &fakeLLM{reply: "func quicksort(...)"}
	r := NewResponder(ResponderOptions{
		Flavor:    FlavorCode,
		Client:    client,
		ShortTerm: memory.NewShortTerm("", 5, log.Nop()),
		Sandbox:   sandbox.NewRunner("/bin/cat", 0),
		Logger:    log.Nop(),
	})

	answer := r.Run(context.Background(), "写一个快速排序")
	assert.Equal(t, "func quicksort(...)", answer)
	assert.Equal(t, 1, client.calls)
}
