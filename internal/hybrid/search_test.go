package hybrid

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/internal/store"
)

type stubStore struct {
	data *store.QueryData
	err  error
}

func (s *stubStore) Query(ctx context.Context, cypher string, params map[string]any) (*store.QueryData, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return &store.QueryData{}, nil
	}
	return s.data, nil
}

func (s *stubStore) Stats(ctx context.Context) (*store.Stats, error) {
	return &store.Stats{}, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vector, s.err
}

type stubIndex struct {
	hits []VectorHit
	err  error
}

func (s *stubIndex) Search(ctx context.Context, vector []float32, limit int) ([]VectorHit, error) {
	return s.hits, s.err
}

func graphEngine(nodes ...graph.Node) *query.Engine {
	return query.NewEngine(&stubStore{data: &store.QueryData{Nodes: nodes}})
}

func TestVectorFailureDegradesToGraphOnly(t *testing.T) {
	engine := graphEngine(graph.Node{ID: "function:f:1", Name: "parseConfig", Type: graph.NodeTypeFunction})
	searcher := NewSearcher(engine,
		&stubIndex{err: errors.New("index corrupt")},
		&stubEmbedder{vector: []float32{1, 0}})

	result, err := searcher.Search(context.Background(), "find function parseConfig", query.Options{})
	require.NoError(t, err, "vector failure is a degradation, not an error")

	assert.Equal(t, StrategyGraphOnly, result.Strategy)
	require.NotEmpty(t, result.FusedResults)
	assert.Equal(t, "parseConfig", result.FusedResults[0].Node.Name)
}

func TestEmbeddingFailureDegradesToGraphOnly(t *testing.T) {
	engine := graphEngine(graph.Node{ID: "function:f:1", Name: "parseConfig", Type: graph.NodeTypeFunction})
	searcher := NewSearcher(engine, &stubIndex{}, &stubEmbedder{err: errors.New("api down")})

	result, err := searcher.Search(context.Background(), "find function parseConfig", query.Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyGraphOnly, result.Strategy)
}

func TestNoIndexMeansGraphOnly(t *testing.T) {
	engine := graphEngine(graph.Node{ID: "function:f:1", Name: "parseConfig", Type: graph.NodeTypeFunction})
	searcher := NewSearcher(engine, nil, nil)

	result, err := searcher.Search(context.Background(), "find function parseConfig", query.Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyGraphOnly, result.Strategy)
	assert.NotEmpty(t, result.FusedResults)
}

func TestEmptyGraphMeansVectorOnly(t *testing.T) {
	engine := query.NewEngine(&stubStore{})
	searcher := NewSearcher(engine,
		&stubIndex{hits: []VectorHit{
			{NodeID: "function:f:1", Name: "parseConfig", NodeType: "Function", Similarity: 0.9},
		}},
		&stubEmbedder{vector: []float32{1, 0}})

	result, err := searcher.Search(context.Background(), "find function parseConfig", query.Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyVectorOnly, result.Strategy)
	require.Len(t, result.FusedResults, 1)
	assert.InDelta(t, 0.7*0.9+0.3*1.0, result.FusedResults[0].Score, 1e-9)
}

func TestHybridFusionScoresAndMarksBothPathMatches(t *testing.T) {
	shared := graph.Node{ID: "function:f:1", Name: "parseConfig", Type: graph.NodeTypeFunction}
	graphOnly := graph.Node{ID: "function:g:2", Name: "loadConfiguration", Type: graph.NodeTypeFunction}

	engine := graphEngine(shared, graphOnly)
	searcher := NewSearcher(engine,
		&stubIndex{hits: []VectorHit{
			{NodeID: shared.ID, Name: shared.Name, NodeType: "Function", Similarity: 0.8},
		}},
		&stubEmbedder{vector: []float32{1, 0}})

	result, err := searcher.Search(context.Background(), "find function parseConfig", query.Options{})
	require.NoError(t, err)

	assert.Equal(t, StrategyHybrid, result.Strategy)
	require.Len(t, result.FusedResults, 2)

	top := result.FusedResults[0]
	assert.Equal(t, shared.ID, top.Node.ID)
	assert.Equal(t, StrategyHybrid, top.Match)
	assert.Greater(t, top.Score, result.FusedResults[1].Score)
	assert.Equal(t, StrategyGraphOnly, result.FusedResults[1].Match)
}

func TestVectorIndexRoundTripAndRanking(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	near := graph.Node{ID: "function:a:1", Name: "alpha", Type: graph.NodeTypeFunction}
	far := graph.Node{ID: "function:b:2", Name: "beta", Type: graph.NodeTypeFunction}

	require.NoError(t, idx.Upsert(ctx, near, []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, far, []float32{0, 1, 0}))
	// Upserting again must not create a second row.
	require.NoError(t, idx.Upsert(ctx, near, []float32{1, 0, 0}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := idx.Search(ctx, []float32{0.9, 0.1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "function:a:1", hits[0].NodeID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}), "dimension mismatch")
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}

func TestIndexNodesSkipsFailedEmbeddings(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	defer idx.Close()

	err = idx.IndexNodes(context.Background(),
		[]graph.Node{{ID: "n1", Name: "one"}},
		&stubEmbedder{err: errors.New("quota")})
	require.Error(t, err)

	count, countErr := idx.Count(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count)
}
