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

package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatIndex 平坦向量索引：按插入顺序存储向量，位置即外部记录的下标。
// 检索时对全量向量做平方 L2 距离的线性扫描，距离小者优先。
type FlatIndex struct {
	dimension int
	vectors   [][]float64
	mu        sync.RWMutex
}

// Match 单条检索结果，Position 对应向量入库时的位置
type Match struct {
	Position int
	Distance float64
}

// flatIndexFile 落盘格式
type flatIndexFile struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float64 `json:"vectors"`
}

// NewFlatIndex 创建平坦索引
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Add 追加一条向量，返回其位置
func (x *FlatIndex) Add(vec []float64) (int, error) {
	if len(vec) != x.dimension {
		return 0, fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), x.dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	stored := make([]float64, len(vec))
	copy(stored, vec)
	x.vectors = append(x.vectors, stored)
	return len(x.vectors) - 1, nil
}

// Search 返回与查询向量最近的至多 k 条结果，按平方 L2 距离升序
func (x *FlatIndex) Search(query []float64, k int) ([]Match, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), x.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]Match, 0, len(x.vectors))
	for pos, vec := range x.vectors {
		matches = append(matches, Match{
			Position: pos,
			Distance: squaredL2(query, vec),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len 返回向量条数
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dimension 返回索引维度
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Truncate 截断到前 n 条向量，n 不小于当前条数时不做任何事
func (x *FlatIndex) Truncate(n int) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n < len(x.vectors) {
		x.vectors = x.vectors[:n]
	}
}

// Save 将索引写入文件
func (x *FlatIndex) Save(path string) error {
	x.mu.RLock()
	data, err := json.Marshal(flatIndexFile{
		Dimension: x.dimension,
		Vectors:   x.vectors,
	})
	x.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

// LoadFlatIndex 从文件加载索引，维度与 dimension 不一致时返回错误
func LoadFlatIndex(path string, dimension int) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index file: %w", err)
	}

	var file flatIndexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode index file: %w", err)
	}

	if dimension > 0 && file.Dimension != dimension {
		return nil, fmt.Errorf("index dimension %d does not match expected dimension %d", file.Dimension, dimension)
	}

	for i, vec := range file.Vectors {
		if len(vec) != file.Dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, index dimension is %d", i, len(vec), file.Dimension)
		}
	}

	return &FlatIndex{
		dimension: file.Dimension,
		vectors:   file.Vectors,
	}, nil
}

// squaredL2 计算平方欧几里得距离，省去开方以保持排序不变
func squaredL2(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
