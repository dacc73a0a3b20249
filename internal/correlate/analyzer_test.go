package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func makeNode(t graph.NodeType, qualifier, name string, props map[string]any) graph.Node {
	return graph.Node{
		ID:         graph.NodeID(t, qualifier),
		Type:       t,
		Name:       name,
		Properties: props,
	}
}

func TestAnalyze_DocumentUnderPackagePath(t *testing.T) {
	doc := makeNode(graph.NodeTypeDocument, "packages/auth/README.md", "Auth Readme", map[string]any{
		"file_path": "packages/auth/README.md",
	})
	pkg := makeNode(graph.NodeTypePackage, "@scope/auth", "@scope/auth", map[string]any{
		"path": "packages/auth",
	})

	rels := NewAnalyzer().Analyze([]graph.Node{doc, pkg}, nil)

	var documents []graph.Relationship
	for _, r := range rels {
		if r.Type == graph.RelDocuments {
			documents = append(documents, r)
		}
	}
	require.Len(t, documents, 1, "exactly one DOCUMENTS edge expected")
	assert.Equal(t, doc.ID, documents[0].Source)
	assert.Equal(t, pkg.ID, documents[0].Target)
	assert.InDelta(t, 0.9, documents[0].Metadata.Confidence, 0.001)
	assert.Equal(t, "document_describes_package", documents[0].Properties["correlation_pattern"])
}

func TestAnalyze_SimilarNamesAcrossTypes(t *testing.T) {
	fn := makeNode(graph.NodeTypeFunction, "src/user.ts:UserService", "UserService", nil)
	entity := makeNode(graph.NodeTypeSchemaEntity, "schema.prisma#UserService", "user_service", nil)

	rels := NewAnalyzer().Analyze([]graph.Node{fn, entity}, nil)

	found := false
	for _, r := range rels {
		if r.Type == graph.RelReferences && r.Properties["correlation_pattern"] == "similar_names" {
			found = true
			assert.InDelta(t, 0.5, r.Metadata.Confidence, 0.001)
		}
	}
	assert.True(t, found, "normalized names should correlate across types")
}

func TestAnalyze_SameTypeNeverCorrelatedBySimilarity(t *testing.T) {
	a := makeNode(graph.NodeTypeFunction, "a.ts:handler", "handler", nil)
	b := makeNode(graph.NodeTypeFunction, "b.ts:handler", "handler", nil)

	rels := NewAnalyzer().Analyze([]graph.Node{a, b}, nil)
	for _, r := range rels {
		assert.NotEqual(t, "similar_names", r.Properties["correlation_pattern"])
	}
}

func TestAnalyze_SkipsExistingEdges(t *testing.T) {
	doc := makeNode(graph.NodeTypeDocument, "pkg/README.md", "Readme", map[string]any{
		"file_path": "pkg/README.md",
	})
	pkg := makeNode(graph.NodeTypePackage, "demo", "demo", map[string]any{
		"path": "pkg",
	})

	existing := graph.Relationship{
		ID:     graph.RelationshipID(graph.RelDocuments, doc.ID, pkg.ID),
		Type:   graph.RelDocuments,
		Source: doc.ID,
		Target: pkg.ID,
	}

	rels := NewAnalyzer().Analyze([]graph.Node{doc, pkg}, []graph.Relationship{existing})
	for _, r := range rels {
		assert.NotEqual(t, existing.ID, r.ID)
	}
}

func TestNameSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"UserService", "user_service", 1.0, 1.0},
		{"createLogger", "logger", 0.4, 0.7},
		{"alpha", "omega", 0.0, 0.5},
		{"", "anything", 0.0, 0.0},
	}
	for _, c := range cases {
		got := NameSimilarity(c.a, c.b)
		assert.GreaterOrEqual(t, got, c.min, "%s vs %s", c.a, c.b)
		assert.LessOrEqual(t, got, c.max, "%s vs %s", c.a, c.b)
	}
}
