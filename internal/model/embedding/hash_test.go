package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)

	a, err := e.Embed(context.Background(), []string{"什么是向量数据库"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"什么是向量数据库"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashEmbedderDimension(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, defaultHashDimension, e.Dimension())

	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, defaultHashDimension)
	}
}

func TestHashEmbedderUnitNorm(t *testing.T) {
	e := NewHashEmbedder(128)

	vecs, err := e.Embed(context.Background(), []string{"normalize me"})
	require.NoError(t, err)

	var norm float64
	for _, x := range vecs[0] {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestHashEmbedderDistinctInputs(t *testing.T) {
	e := NewHashEmbedder(64)

	vecs, err := e.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}
