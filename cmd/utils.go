package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"codegraph/internal/ai"
	"codegraph/internal/config"
	"codegraph/internal/correlate"
	"codegraph/internal/extract"
	"codegraph/internal/graph"
	"codegraph/internal/hybrid"
	"codegraph/internal/query"
	"codegraph/internal/store"
	"codegraph/pkg/logger"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// indexVectors embeds freshly imported nodes into the configured vector
// index so hybrid search has vectors to match against. Skipped when no
// index path or API key is configured.
func indexVectors(ctx context.Context, nodes []graph.Node) error {
	engineCfg := config.LoadEngine()
	if engineCfg.VectorIndexPath == "" {
		return nil
	}
	client := ai.NewClient(engineCfg)
	if client == nil {
		logger.Warn("Vector index configured but no API key set, skipping embedding")
		return nil
	}
	return indexInto(ctx, engineCfg.VectorIndexPath, nodes, client)
}

func indexInto(ctx context.Context, path string, nodes []graph.Node, embedder hybrid.Embedder) error {
	index, err := hybrid.OpenIndex(path)
	if err != nil {
		return err
	}
	defer index.Close()
	return index.IndexNodes(ctx, nodes, embedder)
}

// connectStore opens a connected graph store from environment config.
// The caller owns Close.
func connectStore(ctx context.Context) (*store.GraphStore, error) {
	graphStore := store.New(config.LoadStore())
	if err := graphStore.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to graph database: %w", err)
	}
	return graphStore, nil
}

// newEngine builds a query engine over the store, wiring in the AI
// classifier when an API key is configured.
func newEngine(svc store.Service) *query.Engine {
	engineCfg := config.LoadEngine()
	if client := ai.NewClient(engineCfg); client != nil {
		return query.NewEngine(svc, query.WithClassifier(client, engineCfg.ClassifierTimeout))
	}
	return query.NewEngine(svc)
}

// runExtraction runs the requested extractor categories over the
// working directory and layers correlated relationships on top.
func runExtraction(ctx context.Context, workingDir string, categories []string) (*graph.ExtractionResult, []extract.CategoryReport, error) {
	runner := extract.NewRunner(extract.NewRegistry())
	result, reports, err := runner.Run(ctx, workingDir, categories)
	if err != nil {
		return nil, nil, err
	}

	analyzer := correlate.NewAnalyzer()
	inferred := analyzer.Analyze(result.Nodes, result.Relationships)
	result.Relationships = append(result.Relationships, inferred...)
	return result, reports, nil
}

func splitCategories(value string) []string {
	if value == "" || value == "all" {
		return nil
	}
	var categories []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			categories = append(categories, part)
		}
	}
	return categories
}

// parseNodeType maps a flag value onto a node type, accepting the enum
// spelling case-insensitively.
func parseNodeType(value string) (graph.NodeType, error) {
	if value == "" {
		return "", nil
	}
	for _, t := range []graph.NodeType{
		graph.NodeTypePackage, graph.NodeTypeFile, graph.NodeTypeDocument,
		graph.NodeTypeFunction, graph.NodeTypeClass, graph.NodeTypeAPI,
		graph.NodeTypeSchemaEntity, graph.NodeTypeDatabaseTable, graph.NodeTypeConcept,
	} {
		if strings.EqualFold(string(t), value) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown node type %q", value)
}
