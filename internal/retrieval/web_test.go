package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-platform/internal/storage/cache"
	"chat-platform/pkg/log"
)

func TestWebSourceFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		w.Write([]byte(`{"AbstractText":"Go is a programming language.","RelatedTopics":[{"Text":"Designed at Google."}]}`))
	}))
	defer server.Close()

	s := NewWebSource(server.URL, 0, nil, log.Nop())
	ev := s.Fetch(context.Background(), "golang", 0)

	require.Equal(t, OutcomeFound, ev.Outcome)
	assert.Equal(t, "Go is a programming language. Designed at Google.", ev.Text)
}

func TestWebSourceEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"","RelatedTopics":[]}`))
	}))
	defer server.Close()

	s := NewWebSource(server.URL, 0, nil, log.Nop())
	ev := s.Fetch(context.Background(), "nothing", 0)

	assert.Equal(t, OutcomeEmpty, ev.Outcome)
	assert.Empty(t, ev.Text)
}

func TestWebSourceServerErrorIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewWebSource(server.URL, 0, nil, log.Nop())
	ev := s.Fetch(context.Background(), "boom", 0)
	assert.Equal(t, OutcomeEmpty, ev.Outcome)
}

func TestWebSourceNormalizeAndTruncate(t *testing.T) {
	long := strings.Repeat("word  \n\t ", 50)
	body, err := json.Marshal(map[string]string{"AbstractText": long})
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	s := NewWebSource(server.URL, 20, nil, log.Nop())
	ev := s.Fetch(context.Background(), "q", 0)

	require.Equal(t, OutcomeFound, ev.Outcome)
	assert.Len(t, []rune(ev.Text), 20)
	assert.NotContains(t, ev.Text, "\n")
	assert.NotContains(t, ev.Text, "  ")
}

func TestWebSourceCacheHitSkipsLookup(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"AbstractText":"cached answer"}`))
	}))
	defer server.Close()

	s := NewWebSource(server.URL, 0, cache.NewMemoryStore(), log.Nop())
	ctx := context.Background()

	first := s.Fetch(ctx, "q", 0)
	second := s.Fetch(ctx, "q", 0)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Text, second.Text)
}
