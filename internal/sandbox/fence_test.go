package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFencedCode(t *testing.T) {
	code, ok := ExtractFencedCode("```go\n1 + 2\n```")
	assert.True(t, ok)
	assert.Equal(t, "1 + 2", code)
}

func TestExtractFencedCodeGolangTag(t *testing.T) {
	code, ok := ExtractFencedCode("  ```golang\nx := 1\nx\n```  ")
	assert.True(t, ok)
	assert.Equal(t, "x := 1\nx", code)
}

func TestExtractFencedCodeRejectsPlainText(t *testing.T) {
	_, ok := ExtractFencedCode("帮我写一个快速排序")
	assert.False(t, ok)
}

func TestExtractFencedCodeRejectsOtherLanguage(t *testing.T) {
	_, ok := ExtractFencedCode("```python\nprint(1)\n```")
	assert.False(t, ok)
}

func TestExtractFencedCodeRejectsEmptyBlock(t *testing.T) {
	_, ok := ExtractFencedCode("```go\n\n```")
	assert.False(t, ok)
}

func TestExtractFencedCodeRejectsNoTag(t *testing.T) {
	_, ok := ExtractFencedCode("```\n1 + 2\n```")
	assert.False(t, ok)
}
