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

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chat-platform/internal/model/embedding"
	"chat-platform/internal/splitter"
	"chat-platform/internal/storage/vector"
	"chat-platform/pkg/log"
	"chat-platform/pkg/metrics"
)

const (
	indexVectorsFile  = "vectors.json"
	indexPassagesFile = "passages.json"
	defaultFetchK     = 4
)

// IndexedSource 本地内容索引检索。索引由 indexer 预先构建，
// 目录缺失或文件损坏时来源标记为不可用而不是报错。
type IndexedSource struct {
	embedder  embedding.Embedder
	index     *vector.FlatIndex
	passages  []string
	available bool
	logger    *log.Logger
}

// NewIndexedSource 加载 dir 下的内容索引。索引未构建不是错误，
// 得到的来源对所有查询返回 Unavailable。
func NewIndexedSource(embedder embedding.Embedder, dir string, logger *log.Logger) *IndexedSource {
	if logger == nil {
		logger = log.Nop()
	}
	s := &IndexedSource{embedder: embedder, logger: logger}
	if dir == "" || embedder == nil {
		return s
	}

	idx, err := vector.LoadFlatIndex(filepath.Join(dir, indexVectorsFile), embedder.Dimension())
	if err != nil {
		logger.Info("content index not loaded", "dir", dir, "error", err)
		return s
	}

	data, err := os.ReadFile(filepath.Join(dir, indexPassagesFile))
	if err != nil {
		logger.Warn("content index passages not loaded", "dir", dir, "error", err)
		return s
	}
	var passages []string
	if err := json.Unmarshal(data, &passages); err != nil {
		logger.Warn("decode content index passages failed", "dir", dir, "error", err)
		return s
	}

	if len(passages) != idx.Len() {
		logger.Warn("content index passages and vectors out of sync", "passages", len(passages), "vectors", idx.Len())
		return s
	}

	s.index = idx
	s.passages = passages
	s.available = true
	return s
}

// Name 实现 Source
func (s *IndexedSource) Name() string { return "index" }

// Available 返回索引是否已构建并成功加载
func (s *IndexedSource) Available() bool { return s.available }

// Fetch 实现 Source
func (s *IndexedSource) Fetch(ctx context.Context, query string, k int) Evidence {
	if !s.available {
		metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeUnavailable)).Inc()
		return Evidence{Outcome: OutcomeUnavailable}
	}
	if k <= 0 {
		k = defaultFetchK
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		s.logger.Warn("embed retrieval query failed", "error", err)
		metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeEmpty)).Inc()
		return Evidence{Outcome: OutcomeEmpty}
	}

	matches, err := s.index.Search(vecs[0], k)
	if err != nil || len(matches) == 0 {
		if err != nil {
			s.logger.Warn("search content index failed", "error", err)
		}
		metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeEmpty)).Inc()
		return Evidence{Outcome: OutcomeEmpty}
	}

	passages := make([]Passage, 0, len(matches))
	for _, match := range matches {
		if match.Position >= len(s.passages) {
			continue
		}
		passages = append(passages, Passage{
			Text:      s.passages[match.Position],
			Relevance: 1.0 / (1.0 + match.Distance),
		})
	}
	if len(passages) == 0 {
		metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeEmpty)).Inc()
		return Evidence{Outcome: OutcomeEmpty}
	}

	metrics.RetrievalTotal.WithLabelValues(s.Name(), string(OutcomeFound)).Inc()
	return Evidence{Outcome: OutcomeFound, Passages: passages}
}

// BuildIndex 将文本片段向量化后写成 dir 下的内容索引，供 IndexedSource 加载
func BuildIndex(ctx context.Context, embedder embedding.Embedder, chunks []splitter.Chunk, dir string) error {
	if embedder == nil {
		return fmt.Errorf("build index requires an embedder")
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	idx, err := vector.NewFlatIndex(embedder.Dimension())
	if err != nil {
		return err
	}
	for _, vec := range vecs {
		if _, err := idx.Add(vec); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := idx.Save(filepath.Join(dir, indexVectorsFile)); err != nil {
		return err
	}

	data, err := json.Marshal(texts)
	if err != nil {
		return fmt.Errorf("marshal passages: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexPassagesFile), data, 0o644); err != nil {
		return fmt.Errorf("write passages file: %w", err)
	}
	return nil
}
