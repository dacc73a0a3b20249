package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
	"codegraph/internal/hybrid"
)

type fixedEmbedder struct {
	vector []float32
}

func (e fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector, nil
}

func TestIndexIntoStoresEmbeddings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	nodes := []graph.Node{
		{ID: "function:a", Type: graph.NodeTypeFunction, Name: "a"},
		{ID: "class:b", Type: graph.NodeTypeClass, Name: "b"},
	}

	err := indexInto(context.Background(), path, nodes, fixedEmbedder{vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	index, err := hybrid.OpenIndex(path)
	require.NoError(t, err)
	defer index.Close()

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := index.Search(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestIndexVectorsSkipsWhenUnconfigured(t *testing.T) {
	t.Setenv("CODEGRAPH_VECTOR_INDEX", "")
	t.Setenv("OPENAI_API_KEY", "")

	err := indexVectors(context.Background(), []graph.Node{{ID: "function:a", Name: "a"}})
	assert.NoError(t, err)
}

func TestIndexVectorsSkipsWithoutAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	t.Setenv("CODEGRAPH_VECTOR_INDEX", path)
	t.Setenv("OPENAI_API_KEY", "")

	err := indexVectors(context.Background(), []graph.Node{{ID: "function:a", Name: "a"}})
	assert.NoError(t, err)
	assert.NoFileExists(t, path, "no index is created without an embedder")
}

func TestOutputJSONRendersHybridResult(t *testing.T) {
	result := &hybrid.SearchResult{
		Strategy: hybrid.StrategyHybrid,
		FusedResults: []hybrid.FusedResult{
			{Node: graph.Node{ID: "function:a", Name: "a"}, Score: 0.9, Match: hybrid.StrategyHybrid},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, result))

	var decoded hybrid.SearchResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, hybrid.StrategyHybrid, decoded.Strategy)
	require.Len(t, decoded.FusedResults, 1)
	assert.Equal(t, "a", decoded.FusedResults[0].Node.Name)
}
