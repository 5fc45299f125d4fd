package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeCompletion_DirectText(t *testing.T) {
	c := DecodeCompletion([]byte(`{"text": "hello"}`))
	require.Equal(t, KindText, c.Kind)
	require.Equal(t, "hello", c.Text())
}

func TestDecodeCompletion_GeminiCandidates(t *testing.T) {
	body := `{"candidates":[{"content":{"parts":[{"text":"foo"},{"text":"bar"}]}}]}`
	c := DecodeCompletion([]byte(body))
	require.Equal(t, KindCandidates, c.Kind)
	require.Equal(t, "foobar", c.Text())
}

func TestDecodeCompletion_OpenAIChoices(t *testing.T) {
	body := `{"choices":[{"message":{"content":"first"}},{"message":{"content":"second"}}]}`
	c := DecodeCompletion([]byte(body))
	require.Equal(t, KindCandidates, c.Kind)
	require.Equal(t, "first", c.Text())
}

func TestDecodeCompletion_ConventionalKeys(t *testing.T) {
	// answer 优先于 result
	c := DecodeCompletion([]byte(`{"result":"r", "answer":"a"}`))
	require.Equal(t, KindMap, c.Kind)
	require.Equal(t, "a", c.Text())

	c = DecodeCompletion([]byte(`{"output_text":"o"}`))
	require.Equal(t, KindMap, c.Kind)
	require.Equal(t, "o", c.Text())
}

func TestDecodeCompletion_RawFallback(t *testing.T) {
	c := DecodeCompletion([]byte(`plain text, not json`))
	require.Equal(t, KindRaw, c.Kind)
	require.Equal(t, "plain text, not json", c.Text())
}

func TestCompletion_Empty(t *testing.T) {
	require.True(t, DecodeCompletion([]byte(`{"text":"  "}`)).Empty())
	require.True(t, TextCompletion("").Empty())
	require.False(t, TextCompletion("x").Empty())
}
