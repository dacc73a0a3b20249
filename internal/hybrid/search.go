package hybrid

import (
	"context"
	"sort"
	"sync"

	"codegraph/internal/graph"
	"codegraph/internal/query"
	"codegraph/pkg/logger"
)

// Strategy names which search paths contributed to a result.
type Strategy string

const (
	StrategyGraphOnly  Strategy = "graph_only"
	StrategyVectorOnly Strategy = "vector_only"
	StrategyHybrid     Strategy = "hybrid"
)

// Fusion weights. Vector similarity dominates for vector hits; graph
// hits enter with a flat base so they are never drowned out entirely.
const (
	vectorSimWeight  = 0.7
	vectorRankWeight = 0.3
	graphBaseScore   = 0.3
	graphRankWeight  = 0.2
	hybridMatchBonus = 0.15
)

// FusedResult is one node with its combined score and which path
// matched it.
type FusedResult struct {
	Node  graph.Node `json:"node"`
	Score float64    `json:"score"`
	Match Strategy   `json:"match"`
}

// SearchResult is the outcome of one hybrid search run.
type SearchResult struct {
	Strategy     Strategy           `json:"strategy"`
	FusedResults []FusedResult      `json:"fused_results"`
	GraphResult  *query.QueryResult `json:"graph_result,omitempty"`
}

// VectorSearcher is the slice of VectorIndex the searcher needs.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]VectorHit, error)
}

// Searcher fuses graph-pattern search with vector similarity search.
// The vector side is optional; without it every run is graph_only.
type Searcher struct {
	engine   *query.Engine
	index    VectorSearcher
	embedder Embedder
}

// NewSearcher creates a hybrid searcher. index and embedder may be nil.
func NewSearcher(engine *query.Engine, index VectorSearcher, embedder Embedder) *Searcher {
	return &Searcher{engine: engine, index: index, embedder: embedder}
}

// Search runs the graph and vector paths concurrently for the same
// query and fuses their results. Vector failure is a degradation to
// graph_only, never an error; only a graph failure with no vector
// results to fall back on is fatal.
func (s *Searcher) Search(ctx context.Context, text string, opts query.Options) (*SearchResult, error) {
	var (
		wg         sync.WaitGroup
		graphRes   *query.QueryResult
		graphErr   error
		vectorHits []VectorHit
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		graphRes, graphErr = s.engine.Ask(ctx, text, opts)
	}()

	if s.index != nil && s.embedder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits = s.vectorSearch(ctx, text, opts)
		}()
	}
	wg.Wait()

	if graphErr != nil {
		if len(vectorHits) == 0 {
			return nil, graphErr
		}
		logger.Warn("Graph search failed, serving vector results only", "error", graphErr)
		graphRes = nil
	}

	return fuse(graphRes, vectorHits), nil
}

// vectorSearch embeds the query and searches the index. All failures
// collapse to "no vector hits".
func (s *Searcher) vectorSearch(ctx context.Context, text string, opts query.Options) []VectorHit {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("Query embedding failed, degrading to graph search", "error", err)
		return nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	hits, err := s.index.Search(ctx, vector, limit)
	if err != nil {
		logger.Warn("Vector search failed, degrading to graph search", "error", err)
		return nil
	}
	return hits
}

func fuse(graphRes *query.QueryResult, vectorHits []VectorHit) *SearchResult {
	var graphNodes []graph.Node
	if graphRes != nil {
		graphNodes = graphRes.Nodes
	}

	result := &SearchResult{GraphResult: graphRes}
	switch {
	case len(vectorHits) == 0:
		result.Strategy = StrategyGraphOnly
	case len(graphNodes) == 0:
		result.Strategy = StrategyVectorOnly
	default:
		result.Strategy = StrategyHybrid
	}

	fusedByID := make(map[string]*FusedResult)
	var order []string

	for pos, hit := range vectorHits {
		rankBonus := 1.0 - float64(pos)/float64(len(vectorHits))
		fusedByID[hit.NodeID] = &FusedResult{
			Node: graph.Node{
				ID:   hit.NodeID,
				Type: graph.NodeType(hit.NodeType),
				Name: hit.Name,
			},
			Score: vectorSimWeight*hit.Similarity + vectorRankWeight*rankBonus,
			Match: StrategyVectorOnly,
		}
		order = append(order, hit.NodeID)
	}

	for pos, node := range graphNodes {
		rankBonus := 1.0 - float64(pos)/float64(len(graphNodes))
		if existing, ok := fusedByID[node.ID]; ok {
			// Matched by both paths: the richer graph node wins, the
			// score gets the graph contribution on top.
			existing.Node = node
			existing.Score += graphBaseScore + graphRankWeight*rankBonus + hybridMatchBonus
			existing.Match = StrategyHybrid
			continue
		}
		fusedByID[node.ID] = &FusedResult{
			Node:  node,
			Score: graphBaseScore + graphRankWeight*rankBonus,
			Match: StrategyGraphOnly,
		}
		order = append(order, node.ID)
	}

	for _, id := range order {
		result.FusedResults = append(result.FusedResults, *fusedByID[id])
	}
	sort.SliceStable(result.FusedResults, func(i, j int) bool {
		return result.FusedResults[i].Score > result.FusedResults[j].Score
	})
	return result
}
