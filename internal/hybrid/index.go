package hybrid

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"codegraph/internal/graph"
)

//go:embed schema.sql
var schema string

// Embedder turns text into a vector. The OpenAI client in internal/ai
// implements it; tests substitute fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorHit is one similarity match from the index.
type VectorHit struct {
	NodeID     string
	Name       string
	NodeType   string
	Similarity float64
}

// VectorIndex persists node embeddings in SQLite and answers cosine
// similarity searches over them.
type VectorIndex struct {
	conn *sql.DB
}

// OpenIndex opens or creates the embedding index at the given path.
func OpenIndex(path string) (*VectorIndex, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize vector index schema: %w", err)
	}
	return &VectorIndex{conn: conn}, nil
}

// Close closes the underlying database.
func (idx *VectorIndex) Close() error {
	return idx.conn.Close()
}

// IndexNodes embeds and upserts the given nodes. Nodes that fail to
// embed are skipped with an error only at the end so one bad node does
// not abandon the batch.
func (idx *VectorIndex) IndexNodes(ctx context.Context, nodes []graph.Node, embedder Embedder) error {
	var failed int
	for _, node := range nodes {
		vector, err := embedder.Embed(ctx, embeddingText(node))
		if err != nil {
			failed++
			continue
		}
		if err := idx.Upsert(ctx, node, vector); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to embed %d of %d nodes", failed, len(nodes))
	}
	return nil
}

// Upsert stores or replaces the embedding for one node.
func (idx *VectorIndex) Upsert(ctx context.Context, node graph.Node, vector []float32) error {
	_, err := idx.conn.ExecContext(ctx, `
		INSERT INTO embeddings (node_id, name, node_type, vector, dims, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			name = excluded.name,
			node_type = excluded.node_type,
			vector = excluded.vector,
			dims = excluded.dims,
			updated_at = excluded.updated_at
	`, node.ID, node.Name, string(node.Type), encodeVector(vector), len(vector),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert embedding for %s: %w", node.ID, err)
	}
	return nil
}

// Search returns the limit most similar indexed nodes by cosine
// similarity. The scan is linear over all stored vectors; the index is
// sized for one repository, not a corpus.
func (idx *VectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]VectorHit, error) {
	rows, err := idx.conn.QueryContext(ctx,
		`SELECT node_id, name, node_type, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("scan vector index: %w", err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var hit VectorHit
		var blob []byte
		if err := rows.Scan(&hit.NodeID, &hit.Name, &hit.NodeType, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}
		stored := decodeVector(blob)
		hit.Similarity = cosineSimilarity(vector, stored)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count reports how many embeddings the index holds.
func (idx *VectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := idx.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count)
	return count, err
}

// embeddingText assembles the text that represents a node in vector
// space: its name, type and the most descriptive properties.
func embeddingText(node graph.Node) string {
	text := fmt.Sprintf("%s %s", node.Type, node.Name)
	for _, key := range []string{"description", "signature", "title", "path", "file_path"} {
		if value := node.Prop(key); value != "" {
			text += " " + value
		}
	}
	return text
}

func encodeVector(vector []float32) []byte {
	blob := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
