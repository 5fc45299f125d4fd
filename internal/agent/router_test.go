package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-platform/internal/memory"
	"chat-platform/internal/retrieval"
	"chat-platform/pkg/log"
)

func newTestRouter(t *testing.T, client *fakeLLM, classifierClient *fakeLLM) *Router {
	t.Helper()

	newShort := func() *memory.ShortTerm { return memory.NewShortTerm("", 5, log.Nop()) }
	knowledge := NewResponder(ResponderOptions{
		Flavor:    FlavorKnowledge,
		Client:    client,
		ShortTerm: newShort(),
		Policy:    NewSearchPolicy(false),
		Logger:    log.Nop(),
	})
	explain := NewResponder(ResponderOptions{
		Flavor:    FlavorExplain,
		Client:    client,
		ShortTerm: newShort(),
		Logger:    log.Nop(),
	})
	code := NewResponder(ResponderOptions{
		Flavor:    FlavorCode,
		Client:    client,
		ShortTerm: newShort(),
		Logger:    log.Nop(),
	})

	return NewRouter(NewClassifier(classifierClient, log.Nop()),
		knowledge, explain, code, NewAuditStoreMem(), "session-1", log.Nop())
}

func TestRouterDispatchByIntent(t *testing.T) {
	router := newTestRouter(t, &fakeLLM{reply: "回答"}, &fakeLLM{reply: "explain"})

	result := router.Route(context.Background(), "什么是闭包")
	assert.Equal(t, IntentExplain, result.Intent)
	assert.Equal(t, "回答", result.Answer)
}

func TestRouterOtherFallsToKnowledge(t *testing.T) {
	router := newTestRouter(t, &fakeLLM{reply: "知识回答"}, &fakeLLM{reply: "other"})

	result := router.Route(context.Background(), "随便聊聊")
	assert.Equal(t, IntentOther, result.Intent)
	assert.Equal(t, "知识回答", result.Answer)
}

func TestRouterAnswerAlwaysPresent(t *testing.T) {
	router := newTestRouter(t, &fakeLLM{reply: ""}, &fakeLLM{reply: "retrieve"})

	result := router.Route(context.Background(), "查点资料")
	assert.Equal(t, IntentRetrieve, result.Intent)
	assert.Equal(t, "", result.Answer)
}

func TestRouterAuditTrail(t *testing.T) {
	router := newTestRouter(t, &fakeLLM{reply: "回答内容"}, &fakeLLM{reply: "retrieve"})
	ctx := context.Background()

	router.Route(ctx, "问题内容")

	entries, err := router.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0].Role)
	assert.Equal(t, "问题内容", entries[0].Content)
	assert.Equal(t, "retrieve", entries[0].Intent)
	assert.Equal(t, "assistant", entries[1].Role)
	assert.Equal(t, "回答内容", entries[1].Content)
}

func TestAuditStoreMemSessionIsolation(t *testing.T) {
	store := NewAuditStoreMem()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, &AuditEntry{SessionID: "a", Role: "user", Content: "1"}))
	require.NoError(t, store.Append(ctx, &AuditEntry{SessionID: "b", Role: "user", Content: "2"}))

	entries, err := store.ListBySession(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].Content)
}

func TestSearchPolicyToggleVisible(t *testing.T) {
	p := NewSearchPolicy(false)
	assert.False(t, p.WebEnabled())
	p.SetWebEnabled(true)
	assert.True(t, p.WebEnabled())
}

// 编译期检查：两种审计实现都满足接口
var (
	_ AuditStore       = (*AuditStoreMem)(nil)
	_ AuditStore       = (*AuditStorePg)(nil)
	_ retrieval.Source = (*fakeWeb)(nil)
)
