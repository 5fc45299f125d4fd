package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-platform/pkg/log"
)

func TestShortTermEviction(t *testing.T) {
	s := NewShortTerm("", 3, log.Nop())

	s.Append("user", "a")
	s.Append("assistant", "b")
	s.Append("user", "c")
	s.Append("assistant", "d")

	assert.Equal(t, 3, s.Size())

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "assistant", h[0].Role)
	assert.Equal(t, "b", h[0].Content)
	assert.Equal(t, "user", h[1].Role)
	assert.Equal(t, "c", h[1].Content)
	assert.Equal(t, "assistant", h[2].Role)
	assert.Equal(t, "d", h[2].Content)
}

func TestShortTermContextRendering(t *testing.T) {
	s := NewShortTerm("", 5, log.Nop())
	s.Append("user", "什么是向量数据库")
	s.Append("assistant", "一种按相似度检索的存储")

	want := "user: 什么是向量数据库\nassistant: 一种按相似度检索的存储"
	assert.Equal(t, want, s.Context())
}

func TestShortTermPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewShortTerm(path, 5, log.Nop())
	s.Append("user", "hello")
	s.Append("assistant", "hi")

	reloaded := NewShortTerm(path, 5, log.Nop())
	assert.Equal(t, s.History(), reloaded.History())
}

func TestShortTermLoadTruncatesToCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewShortTerm(path, 10, log.Nop())
	for _, c := range []string{"1", "2", "3", "4", "5"} {
		s.Append("user", c)
	}

	reloaded := NewShortTerm(path, 2, log.Nop())
	h := reloaded.History()
	require.Len(t, h, 2)
	assert.Equal(t, "4", h[0].Content)
	assert.Equal(t, "5", h[1].Content)
}

func TestShortTermLoadCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	s := NewShortTerm(path, 5, log.Nop())
	assert.Equal(t, 0, s.Size())
}

func TestShortTermClearPersistsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewShortTerm(path, 5, log.Nop())
	s.Append("user", "a")
	s.Clear()
	assert.Equal(t, 0, s.Size())

	reloaded := NewShortTerm(path, 5, log.Nop())
	assert.Equal(t, 0, reloaded.Size())
}

func TestShortTermPersistFailureIsSwallowed(t *testing.T) {
	// 目录不可写时 Append 不应失败，内存状态仍然生效
	s := NewShortTerm("/proc/nonexistent/session.json", 3, log.Nop())
	s.Append("user", "a")
	assert.Equal(t, 1, s.Size())
}
