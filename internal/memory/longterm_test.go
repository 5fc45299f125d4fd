package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-platform/internal/model/embedding"
	"chat-platform/internal/model/llm"
	"chat-platform/pkg/log"
)

// fakeLLM 固定应答或失败的 LLM 客户端
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return f.GenerateWithContext(context.Background(), prompt, options)
}

func (f *fakeLLM) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Model() string    { return "fake" }
func (f *fakeLLM) Provider() string { return "fake" }

func newTestLongTerm(t *testing.T, client llm.Client) (*LongTerm, string, string) {
	t.Helper()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.json")
	metaPath := filepath.Join(dir, "meta.json")

	m, err := NewLongTerm(client, embedding.NewHashEmbedder(32), indexPath, metaPath, 3, log.Nop())
	require.NoError(t, err)
	return m, indexPath, metaPath
}

func TestLongTermQueryEmptyStore(t *testing.T) {
	m, _, _ := newTestLongTerm(t, &fakeLLM{reply: "summary"})

	got, err := m.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLongTermCommitAndQuery(t *testing.T) {
	m, _, _ := newTestLongTerm(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Commit(ctx, "user: 向量数据库是什么\nassistant: 按相似度检索的存储"))
	require.NoError(t, m.Commit(ctx, "user: 今天天气如何\nassistant: 晴"))
	assert.Equal(t, 2, m.Size())

	got, err := m.Query(ctx, "向量数据库是什么", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "向量数据库")
}

func TestLongTermQueryFewerThanTopK(t *testing.T) {
	m, _, _ := newTestLongTerm(t, nil)
	ctx := context.Background()

	require.NoError(t, m.Commit(ctx, "only one entry"))

	got, err := m.Query(ctx, "entry", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLongTermSummarizeFallbackTruncates(t *testing.T) {
	m, _, _ := newTestLongTerm(t, &fakeLLM{err: assert.AnError})
	ctx := context.Background()

	long := strings.Repeat("长", 300)
	require.NoError(t, m.Commit(ctx, long))

	got, err := m.Query(ctx, "长", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 200, len([]rune(got[0])))
}

func TestLongTermPersistRoundTrip(t *testing.T) {
	client := &fakeLLM{reply: "压缩后的摘要"}
	m, indexPath, metaPath := newTestLongTerm(t, client)
	ctx := context.Background()

	require.NoError(t, m.Commit(ctx, "some conversation"))

	reloaded, err := NewLongTerm(client, embedding.NewHashEmbedder(32), indexPath, metaPath, 3, log.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Size())

	got, err := reloaded.Query(ctx, "摘要", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "压缩后的摘要", got[0])
}

func TestLongTermDimensionMismatchFatal(t *testing.T) {
	client := &fakeLLM{reply: "summary"}
	m, indexPath, metaPath := newTestLongTerm(t, client)
	require.NoError(t, m.Commit(context.Background(), "text"))

	_, err := NewLongTerm(client, embedding.NewHashEmbedder(64), indexPath, metaPath, 3, log.Nop())
	assert.Error(t, err)
}

func TestLongTermMissingFilesStartEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := NewLongTerm(nil, embedding.NewHashEmbedder(32),
		filepath.Join(dir, "missing-index.json"), filepath.Join(dir, "missing-meta.json"), 3, log.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Size())
}

func TestLongTermOutOfSyncFilesTruncated(t *testing.T) {
	client := &fakeLLM{reply: "summary"}
	m, indexPath, metaPath := newTestLongTerm(t, client)
	ctx := context.Background()

	require.NoError(t, m.Commit(ctx, "first"))
	require.NoError(t, m.Commit(ctx, "second"))

	// 模拟两份文件写入之间崩溃：记录文件回退为单条
	data, err := json.Marshal([]Record{{Timestamp: time.Now(), Summary: "only"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(metaPath, data, 0o644))

	reloaded, err := NewLongTerm(client, embedding.NewHashEmbedder(32), indexPath, metaPath, 3, log.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Size())
}
