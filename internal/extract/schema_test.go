package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

func TestSchemaExtractor_PrismaModels(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "prisma/schema.prisma", `
model User {
  id    Int    @id
  email String
  posts Post[]

  @@map("users")
}

model Post {
  id     Int  @id
  author User
}
`)

	e := NewSchemaExtractor()
	raw, err := e.ExtractRaw(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, e.SourceCount(raw))

	res, err := e.Transform(raw)
	require.NoError(t, err)

	entities := map[string]graph.Node{}
	tables := map[string]bool{}
	for _, n := range res.Nodes {
		switch n.Type {
		case graph.NodeTypeSchemaEntity:
			entities[n.Name] = n
		case graph.NodeTypeDatabaseTable:
			tables[n.Name] = true
		}
	}
	require.Contains(t, entities, "User")
	require.Contains(t, entities, "Post")
	assert.True(t, tables["users"], "mapped table should become a DatabaseTable node")

	var refs int
	for _, rel := range res.Relationships {
		if rel.Type == graph.RelReferences {
			refs++
		}
	}
	// User.posts -> Post and Post.author -> User
	assert.Equal(t, 2, refs)
}

func TestSchemaExtractor_SQLForeignKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "migrations/001_init.sql", `
CREATE TABLE users (
  id INTEGER PRIMARY KEY,
  email TEXT NOT NULL
);

CREATE TABLE posts (
  id INTEGER PRIMARY KEY,
  user_id INTEGER REFERENCES users(id)
);
`)

	e := NewSchemaExtractor()
	raw, err := e.ExtractRaw(context.Background(), root)
	require.NoError(t, err)

	res, err := e.Transform(raw)
	require.NoError(t, err)

	var ref *graph.Relationship
	for i, rel := range res.Relationships {
		if rel.Type == graph.RelReferences {
			ref = &res.Relationships[i]
		}
	}
	require.NotNil(t, ref, "foreign key should produce a REFERENCES edge")

	names := map[string]string{}
	for _, n := range res.Nodes {
		if n.Type == graph.NodeTypeSchemaEntity {
			names[n.ID] = n.Name
		}
	}
	assert.Equal(t, "posts", names[ref.Source])
	assert.Equal(t, "users", names[ref.Target])
}
