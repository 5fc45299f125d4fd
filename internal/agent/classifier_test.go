package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-platform/internal/model/llm"
	"chat-platform/pkg/log"
)

// fakeLLM 固定应答或失败的 LLM 客户端
type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return f.GenerateWithContext(context.Background(), prompt, options)
}

func (f *fakeLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Model() string    { return "fake" }
func (f *fakeLLM) Provider() string { return "fake" }

func TestClassifierUsesLLMFirst(t *testing.T) {
	c := NewClassifier(&fakeLLM{reply: "Code 因为用户要写程序"}, log.Nop())
	got := c.Classify(context.Background(), "随便什么问题")
	assert.Equal(t, IntentCode, got)
}

func TestClassifierFallsBackToHeuristics(t *testing.T) {
	c := NewClassifier(&fakeLLM{err: assert.AnError}, log.Nop())

	assert.Equal(t, IntentCode, c.Classify(context.Background(), "帮我写一个排序函数"))
	assert.Equal(t, IntentExplain, c.Classify(context.Background(), "解释一下什么意思"))
	assert.Equal(t, IntentRetrieve, c.Classify(context.Background(), "search the latest release"))
}

func TestClassifierUnrecognizedLLMReplyFallsBack(t *testing.T) {
	c := NewClassifier(&fakeLLM{reply: "chitchat"}, log.Nop())
	assert.Equal(t, IntentExplain, c.Classify(context.Background(), "explain this"))
}

func TestClassifierDefaultsToRetrieve(t *testing.T) {
	c := NewClassifier(&fakeLLM{err: assert.AnError}, log.Nop())

	assert.Equal(t, IntentRetrieve, c.Classify(context.Background(), ""))
	assert.Equal(t, IntentRetrieve, c.Classify(context.Background(), "呃"))
}

func TestClassifierTotalWithoutLLM(t *testing.T) {
	c := NewClassifier(nil, log.Nop())
	for _, q := range []string{"", "asdfgh", "你好", "解释一下闭包"} {
		got := c.Classify(context.Background(), q)
		_, ok := ParseIntent(string(got))
		assert.True(t, ok, "query %q produced invalid intent %q", q, got)
	}
}
