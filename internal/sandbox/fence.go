package sandbox

import (
	"strings"
)

// ExtractFencedCode 判断 query 是否整体是一个要求执行的围栏代码块，
// 是则返回块内源码。只认 go 和 golang 两种语言标签。
func ExtractFencedCode(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return "", false
	}

	body := strings.TrimPrefix(trimmed, "```")
	body = strings.TrimSuffix(body, "```")

	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return "", false
	}
	lang := strings.ToLower(strings.TrimSpace(body[:newline]))
	if lang != "go" && lang != "golang" {
		return "", false
	}

	code := strings.TrimSpace(body[newline+1:])
	if code == "" {
		return "", false
	}
	return code, true
}
