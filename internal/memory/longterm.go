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

package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chat-platform/internal/model/embedding"
	"chat-platform/internal/model/llm"
	"chat-platform/internal/storage/vector"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

const (
	defaultTopK             = 3
	summaryFallbackRunes    = 200
	summarizePromptTemplate = "请将以下对话压缩为一段简明摘要，保留关键事实与结论，不要添加评论：\n\n%s"
)

// Record 长期记忆中的一条摘要，与向量索引中同位置的向量一一对应
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
}

// LongTerm 长期记忆：对话摘要加向量的只追加存储。
// 记录列表与向量索引的条数和位置必须始终一致，位置是检索结果的唯一寻址方式。
type LongTerm struct {
	mu        sync.RWMutex
	client    llm.Client
	embedder  embedding.Embedder
	index     *vector.FlatIndex
	records   []Record
	indexPath string
	metaPath  string
	topK      int
	logger    *log.Logger
}

// NewLongTerm 创建长期记忆。持久化文件缺失或损坏时从空库开始；
// 已有索引维度与 embedder 维度不一致则视为配置错误直接失败。
func NewLongTerm(client llm.Client, embedder embedding.Embedder, indexPath, metaPath string, topK int, logger *log.Logger) (*LongTerm, error) {
	if embedder == nil {
		return nil, fmt.Errorf("long term memory requires an embedder")
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if logger == nil {
		logger = log.Nop()
	}

	m := &LongTerm{
		client:    client,
		embedder:  embedder,
		indexPath: indexPath,
		metaPath:  metaPath,
		topK:      topK,
		logger:    logger,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// load 尽力恢复磁盘状态，两份文件条数不一致时截断到较小者
func (m *LongTerm) load() error {
	dim := m.embedder.Dimension()

	idx, err := vector.LoadFlatIndex(m.indexPath, dim)
	if err != nil {
		if m.indexPath != "" && !errors.Is(err, fs.ErrNotExist) {
			// 维度不匹配是致命的，其余加载失败从空库开始
			if loaded, dimErr := vector.LoadFlatIndex(m.indexPath, 0); dimErr == nil && loaded.Dimension() != dim {
				return fmt.Errorf("long term index dimension %d does not match embedder dimension %d", loaded.Dimension(), dim)
			}
			m.logger.Warn("load long term index failed", "path", m.indexPath, "error", err)
		}
		idx, err = vector.NewFlatIndex(dim)
		if err != nil {
			return err
		}
	}
	m.index = idx

	if m.metaPath != "" {
		data, err := os.ReadFile(m.metaPath)
		if err == nil {
			if err := json.Unmarshal(data, &m.records); err != nil {
				m.logger.Warn("decode long term records failed", "path", m.metaPath, "error", err)
				m.records = nil
			}
		} else if !os.IsNotExist(err) {
			m.logger.Warn("load long term records failed", "path", m.metaPath, "error", err)
		}
	}

	if len(m.records) != m.index.Len() {
		n := len(m.records)
		if m.index.Len() < n {
			n = m.index.Len()
		}
		m.logger.Warn("long term records and index out of sync, truncating",
			"records", len(m.records), "vectors", m.index.Len(), "kept", n)
		m.records = m.records[:n]
		m.index.Truncate(n)
	}
	return nil
}

// Commit 将一段对话压缩进长期记忆：摘要、向量化、追加并落盘。
// 摘要失败退化为原文截断；落盘失败只记日志，该条内容可能丢失。
func (m *LongTerm) Commit(ctx context.Context, conversationText string) error {
	if conversationText == "" {
		return nil
	}

	summary := m.summarize(ctx, conversationText)

	vecs, err := m.embedder.Embed(ctx, []string{summary})
	if err != nil {
		return fmt.Errorf("embed summary: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.index.Add(vecs[0]); err != nil {
		return fmt.Errorf("index summary: %w", err)
	}
	m.records = append(m.records, Record{
		Timestamp: time.Now(),
		Summary:   summary,
	})

	m.persist()
	metrics.MemoryFlushTotal.Inc()
	return nil
}

// Query 返回与 text 语义最近的至多 topK 条摘要，空库返回空切片
func (m *LongTerm) Query(ctx context.Context, text string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = m.topK
	}

	m.mu.RLock()
	empty := m.index.Len() == 0
	m.mu.RUnlock()
	if empty {
		return []string{}, nil
	}

	vecs, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches, err := m.index.Search(vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search long term index: %w", err)
	}

	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Position < len(m.records) {
			out = append(out, m.records[match.Position].Summary)
		}
	}
	return out, nil
}

// Size 返回记录条数
func (m *LongTerm) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// summarize 调用 LLM 压缩对话，失败时截断原文前 200 个字符兜底
func (m *LongTerm) summarize(ctx context.Context, text string) string {
	if m.client != nil {
		prompt := fmt.Sprintf(summarizePromptTemplate, text)
		summary, err := m.client.GenerateWithContext(ctx, prompt, llm.GenerateOptions{})
		if err == nil && summary != "" {
			return summary
		}
		if err != nil {
			m.logger.Warn("summarize conversation failed, falling back to truncation", "error", err)
		}
	}

	runes := []rune(text)
	if len(runes) > summaryFallbackRunes {
		runes = runes[:summaryFallbackRunes]
	}
	return string(runes)
}

// persist 写索引和记录两份文件，调用方需已持有写锁。
// 两次写之间进程崩溃会让磁盘少记一条，下次加载按较小条数截断恢复。
func (m *LongTerm) persist() {
	if m.indexPath != "" {
		if err := m.index.Save(m.indexPath); err != nil {
			m.logger.Warn("persist long term index failed", "path", m.indexPath, "error", err)
		}
	}
	if m.metaPath == "" {
		return
	}

	data, err := json.Marshal(m.records)
	if err != nil {
		m.logger.Warn("encode long term records failed", "error", err)
		return
	}
	if dir := filepath.Dir(m.metaPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			m.logger.Warn("create memory dir failed", "dir", dir, "error", err)
			return
		}
	}
	if err := os.WriteFile(m.metaPath, data, 0o644); err != nil {
		m.logger.Warn("persist long term records failed", "path", m.metaPath, "error", err)
	}
}
