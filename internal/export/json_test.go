package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func sampleResult() *graph.ExtractionResult {
	return &graph.ExtractionResult{
		Nodes: []graph.Node{
			{ID: "package:demo:1", Type: graph.NodeTypePackage, Name: "demo"},
			{ID: "function:demo_run:2", Type: graph.NodeTypeFunction, Name: "run"},
		},
		Relationships: []graph.Relationship{
			{ID: "rel:contains:3", Type: graph.RelContains, Source: "package:demo:1", Target: "function:demo_run:2"},
		},
	}
}

func TestWriteJSONProducesPrettyPrintedPair(t *testing.T) {
	dir := t.TempDir()

	nodesFile, relsFile, err := WriteJSON(sampleResult(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nodes.json"), nodesFile)
	assert.Equal(t, filepath.Join(dir, "relationships.json"), relsFile)

	raw, err := os.ReadFile(nodesFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n  "), "output is indented")

	var nodes []graph.Node
	require.NoError(t, json.Unmarshal(raw, &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "demo", nodes[0].Name)

	raw, err = os.ReadFile(relsFile)
	require.NoError(t, err)
	var rels []graph.Relationship
	require.NoError(t, json.Unmarshal(raw, &rels))
	require.Len(t, rels, 1)
	assert.Equal(t, graph.RelContains, rels[0].Type)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "2 nodes, 1 relationships")
	assert.Contains(t, out, "Package (1)")
	assert.Contains(t, out, "CONTAINS")
}
