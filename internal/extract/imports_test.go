package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func runImportExtractor(t *testing.T, root string) *graph.ExtractionResult {
	t.Helper()
	e := NewImportExtractor()
	e.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	raw, err := e.ExtractRaw(context.Background(), root)
	require.NoError(t, err)
	require.True(t, e.Validate(raw))

	res, err := e.Transform(raw)
	require.NoError(t, err)
	return res
}

func findNode(res *graph.ExtractionResult, name string) *graph.Node {
	for i := range res.Nodes {
		if res.Nodes[i].Name == name {
			return &res.Nodes[i]
		}
	}
	return nil
}

func TestImportExtractorResolvesRelativeImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "import { helper } from './util'\nimport express from 'express'\n")
	writeFile(t, root, "src/util.ts", "import path from 'path'\nexport const helper = 1\n")

	res := runImportExtractor(t, root)

	app := findNode(res, "app.ts")
	util := findNode(res, "util.ts")
	require.NotNil(t, app)
	require.NotNil(t, util)

	var internal, external int
	for _, rel := range res.Relationships {
		require.Equal(t, graph.RelImports, rel.Type)
		if rel.Source == app.ID && rel.Target == util.ID {
			internal++
			assert.Equal(t, "./util", rel.Properties["import_path"])
		}
		if target := findNodeByID(res, rel.Target); target != nil && target.Type == graph.NodeTypePackage {
			external++
		}
	}
	assert.Equal(t, 1, internal, "relative import resolves to the scanned file")
	assert.Equal(t, 2, external, "express and path become external packages")

	express := findNode(res, "express")
	require.NotNil(t, express)
	assert.Equal(t, true, express.Properties["external"])
}

func TestImportExtractorReadsGoImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nimport (\n\t\"fmt\"\n\t\"golang.org/x/sync/errgroup\"\n)\n\nfunc main() { fmt.Println(); _ = errgroup.Group{} }\n")

	res := runImportExtractor(t, root)

	main := findNode(res, "main.go")
	require.NotNil(t, main)
	assert.Equal(t, "go", main.Properties["language"])

	targets := make(map[string]bool)
	for _, rel := range res.Relationships {
		targets[rel.Properties["import_path"].(string)] = true
	}
	assert.True(t, targets["fmt"])
	assert.True(t, targets["golang.org/x/sync/errgroup"])
}

func TestImportExtractorPythonModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tool.py", "import os\nfrom collections import defaultdict\n\nx = 1\n")

	res := runImportExtractor(t, root)

	targets := make(map[string]int)
	for _, rel := range res.Relationships {
		targets[rel.Properties["import_path"].(string)] = rel.Properties["line"].(int)
	}
	assert.Equal(t, 1, targets["os"])
	assert.Equal(t, 2, targets["collections"])
}

func TestImportExtractorIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "import b from './b'\n")
	writeFile(t, root, "b.ts", "export default 1\n")

	first := runImportExtractor(t, root)
	second := runImportExtractor(t, root)
	assert.Equal(t, first, second)
}

func findNodeByID(res *graph.ExtractionResult, id string) *graph.Node {
	for i := range res.Nodes {
		if res.Nodes[i].ID == id {
			return &res.Nodes[i]
		}
	}
	return nil
}
