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

package splitter

import (
	"github.com/google/uuid"
)

const defaultWindowRunes = 2000

// Chunk 一段待索引或待摘要的文本
type Chunk struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// Windows 将文本按字符数切成有界窗口，windowRunes<=0 时默认 2000。
// 按 rune 计数切分，不会把多字节字符切到两个窗口里。
func Windows(text string, windowRunes int) []string {
	if windowRunes <= 0 {
		windowRunes = defaultWindowRunes
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += windowRunes {
		end := start + windowRunes
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// SplitChunks 将文本切成带重叠的定长片段，供内容索引构建使用
func SplitChunks(text string, windowRunes, overlapRunes int) []Chunk {
	if windowRunes <= 0 {
		windowRunes = defaultWindowRunes
	}
	if overlapRunes < 0 || overlapRunes >= windowRunes {
		overlapRunes = 0
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := windowRunes - overlapRunes

	var out []Chunk
	for start, index := 0, 0; start < len(runes); start, index = start+step, index+1 {
		end := start + windowRunes
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, Chunk{
			ID:      uuid.New().String(),
			Content: string(runes[start:end]),
			Index:   index,
		})
		if end == len(runes) {
			break
		}
	}
	return out
}
