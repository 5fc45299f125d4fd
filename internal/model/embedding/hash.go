package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

const defaultHashDimension = 384

// HashEmbedder 本地确定性向量化实现：对文本做哈希后用 LCG 展开成单位向量。
// 没有语义，只保证相同输入得到相同向量，供离线开发与测试使用。
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder 创建 HashEmbedder，dimension<=0 时默认 384
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Model 返回模型名称
func (e *HashEmbedder) Model() string {
	return "hash"
}

// Dimension 返回向量维度
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// Embed 实现 Embedder
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, e.dimension)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / float64(math.MaxInt64)
		vec[i] = v
		norm += v * v
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
