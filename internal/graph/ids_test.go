package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeID_Deterministic(t *testing.T) {
	a := NodeID(NodeTypePackage, "@scope/foo")
	b := NodeID(NodeTypePackage, "@scope/foo")
	assert.Equal(t, a, b)
}

func TestNodeID_TypeDisambiguates(t *testing.T) {
	pkg := NodeID(NodeTypePackage, "@scope/foo")
	file := NodeID(NodeTypeFile, "@scope/foo")
	assert.NotEqual(t, pkg, file)
}

func TestNodeID_DistinctQualifiers(t *testing.T) {
	a := NodeID(NodeTypeFunction, "pkg/a.Run")
	b := NodeID(NodeTypeFunction, "pkg/b.Run")
	assert.NotEqual(t, a, b)
}

func TestNodeID_PathNormalization(t *testing.T) {
	a := NodeID(NodeTypeDocument, "docs/readme.md")
	b := NodeID(NodeTypeDocument, "./docs/readme.md")
	assert.Equal(t, a, b)
}

func TestRelationshipID_TripleIdentity(t *testing.T) {
	src := NodeID(NodeTypePackage, "foo")
	tgt := NodeID(NodeTypePackage, "bar")

	a := RelationshipID(RelDependsOn, src, tgt)
	b := RelationshipID(RelDependsOn, src, tgt)
	assert.Equal(t, a, b)

	reversed := RelationshipID(RelDependsOn, tgt, src)
	assert.NotEqual(t, a, reversed, "direction is part of edge identity")

	other := RelationshipID(RelImports, src, tgt)
	assert.NotEqual(t, a, other, "type is part of edge identity")
}
