package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func TestFunctionExtractorGoCallGraph(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/tiny\n\ngo 1.21\n")
	writeFile(t, root, "main.go", `package main

// Greet renders the greeting.
func Greet() string {
	return "hello"
}

func main() {
	Greet()
}
`)

	res := runFunctionExtractor(t, root)

	greet := findNode(res, "Greet")
	require.NotNil(t, greet)
	assert.Equal(t, graph.NodeTypeFunction, greet.Type)
	assert.Equal(t, "go", greet.Properties["language"])
	assert.Equal(t, "main.go", greet.Properties["file_path"])
	assert.Equal(t, true, greet.Properties["exported"])
	assert.Equal(t, "Greet renders the greeting.", greet.Properties["doc"])

	mainFn := findNode(res, "main")
	require.NotNil(t, mainFn)
	assert.Equal(t, false, mainFn.Properties["exported"])

	var call *graph.Relationship
	for i, rel := range res.Relationships {
		if rel.Type == graph.RelCalls && rel.Source == mainFn.ID && rel.Target == greet.ID {
			call = &res.Relationships[i]
		}
	}
	require.NotNil(t, call, "main calls Greet")
	assert.Equal(t, "main.go", call.Properties["call_site_file"])
}

func TestFunctionExtractorGoFoldsClosures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/closures\n\ngo 1.21\n")
	writeFile(t, root, "main.go", `package main

func target() {}

func outer() {
	fn := func() {
		target()
	}
	fn()
}

func main() {
	outer()
}
`)

	res := runFunctionExtractor(t, root)

	for _, n := range res.Nodes {
		assert.NotContains(t, n.Name, "$", "closures fold into their parents")
	}

	outer := findNode(res, "outer")
	target := findNode(res, "target")
	require.NotNil(t, outer)
	require.NotNil(t, target)

	var found bool
	for _, rel := range res.Relationships {
		if rel.Type == graph.RelCalls && rel.Source == outer.ID && rel.Target == target.ID {
			found = true
		}
	}
	assert.True(t, found, "the closure's call is attributed to outer")
}
