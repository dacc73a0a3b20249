package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

type stubExtractor struct {
	name   string
	result *graph.ExtractionResult
	err    error
	panics bool
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.name, nil
}

func (s *stubExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	return s.result, nil
}

func (s *stubExtractor) Validate(raw RawData) bool { return raw == s.name }

func (s *stubExtractor) SourceCount(raw RawData) int { return 1 }

func stubResult(qualifier string) *graph.ExtractionResult {
	return &graph.ExtractionResult{
		Nodes: []graph.Node{{
			ID:   graph.NodeID(graph.NodeTypeConcept, qualifier),
			Type: graph.NodeTypeConcept,
			Name: qualifier,
		}},
	}
}

func TestRunner_FailureDoesNotAbortSiblings(t *testing.T) {
	registry := &Registry{factories: map[string]func() Extractor{}}
	registry.Register("good", func() Extractor { return &stubExtractor{name: "good", result: stubResult("good")} })
	registry.Register("bad", func() Extractor { return &stubExtractor{name: "bad", err: errors.New("unreadable directory")} })

	runner := NewRunner(registry)
	merged, reports, err := runner.Run(context.Background(), t.TempDir(), []string{"good", "bad"})
	require.NoError(t, err)

	assert.Len(t, merged.Nodes, 1)
	assert.Equal(t, "good", merged.Nodes[0].Name)

	byCategory := map[string]CategoryReport{}
	for _, r := range reports {
		byCategory[r.Category] = r
	}
	assert.NoError(t, byCategory["good"].Err)
	assert.Error(t, byCategory["bad"].Err)
}

func TestRunner_PanicIsIsolated(t *testing.T) {
	registry := &Registry{factories: map[string]func() Extractor{}}
	registry.Register("good", func() Extractor { return &stubExtractor{name: "good", result: stubResult("good")} })
	registry.Register("explodes", func() Extractor { return &stubExtractor{name: "explodes", panics: true} })

	runner := NewRunner(registry)
	merged, reports, err := runner.Run(context.Background(), t.TempDir(), []string{"good", "explodes"})
	require.NoError(t, err)
	assert.Len(t, merged.Nodes, 1)

	for _, r := range reports {
		if r.Category == "explodes" {
			assert.Error(t, r.Err)
		}
	}
}

func TestRunner_ResolveAll(t *testing.T) {
	runner := NewRunner(NewRegistry())

	all, err := runner.Resolve([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"document", "function", "import", "package", "schema"}, all)

	_, err = runner.Resolve([]string{"nonsense"})
	assert.Error(t, err)
}

func TestRunner_MergeIsDeterministicAcrossCompletionOrder(t *testing.T) {
	slow := &stubExtractor{name: "slow", result: stubResult("shared")}
	fast := &stubExtractor{name: "fast", result: stubResult("shared")}

	registry := &Registry{factories: map[string]func() Extractor{}}
	registry.Register("slow", func() Extractor {
		time.Sleep(10 * time.Millisecond)
		return slow
	})
	registry.Register("fast", func() Extractor { return fast })

	runner := NewRunner(registry)
	merged, _, err := runner.Run(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Len(t, merged.Nodes, 1, "identical ids merge to one node regardless of order")
}
