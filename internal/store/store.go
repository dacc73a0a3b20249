package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// importBatchSize bounds the number of rows per UNWIND so a large
// repository imports in steady chunks.
const importBatchSize = 500

// Stats summarizes the stored graph.
type Stats struct {
	NodeCount         int64            `json:"node_count"`
	RelationshipCount int64            `json:"relationship_count"`
	NodeTypes         map[string]int64 `json:"node_types"`
	RelationshipTypes map[string]int64 `json:"relationship_types"`
}

// QueryData is the mapped result of an ad-hoc graph query: every node,
// relationship and path value found in the records, plus the raw records
// keyed by their return aliases.
type QueryData struct {
	Nodes         []graph.Node
	Relationships []graph.Relationship
	Records       []map[string]any
}

// Service is the read surface the query engine depends on; the concrete
// GraphStore implements it against Neo4j.
type Service interface {
	Query(ctx context.Context, cypher string, params map[string]any) (*QueryData, error)
	Stats(ctx context.Context) (*Stats, error)
}

// GraphStore owns the persistent property graph in Neo4j.
type GraphStore struct {
	cfg    config.StoreConfig
	driver neo4j.DriverWithContext
}

// New creates an unconnected store for the given connection settings.
func New(cfg config.StoreConfig) *GraphStore {
	return &GraphStore{cfg: cfg}
}

// Connect establishes and verifies the driver connection pool.
func (s *GraphStore) Connect(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(s.cfg.URI, neo4j.BasicAuth(s.cfg.Username, s.cfg.Password, ""))
	if err != nil {
		return classify("connect", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return classify("connect", err)
	}
	s.driver = driver
	logger.Debug("Connected to graph store", "uri", s.cfg.URI, "database", s.cfg.Database)
	return nil
}

// Close releases the driver pool.
func (s *GraphStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func (s *GraphStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.cfg.Database,
	})
}

// ImportData performs an idempotent bulk upsert of nodes and
// relationships, merging by id. Re-importing identical data changes no
// counts; only updated_at moves.
func (s *GraphStore) ImportData(ctx context.Context, nodes []graph.Node, rels []graph.Relationship) error {
	if s.driver == nil {
		return &StoreError{Kind: ErrConnection, Op: "import", Err: fmt.Errorf("store is not connected")}
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for nodeType, rows := range groupNodeRows(nodes) {
		// Labels cannot be parameterized; the type comes from the
		// extractor enum, never from user input.
		cypher := fmt.Sprintf(`
			UNWIND $rows AS row
			MERGE (n:%s {id: row.id})
			ON CREATE SET n.created_at = row.created_at
			SET n += row.props,
			    n.type = row.type,
			    n.name = row.name,
			    n.updated_at = datetime()
		`, nodeType)

		if err := runBatched(ctx, session, cypher, rows); err != nil {
			return classify("import nodes", err)
		}
	}

	for relType, rows := range groupRelRows(rels) {
		cypher := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (a {id: row.source})
			MATCH (b {id: row.target})
			MERGE (a)-[r:%s {id: row.id}]->(b)
			ON CREATE SET r.created_at = row.created_at
			SET r += row.props,
			    r.source = row.source,
			    r.target = row.target,
			    r.updated_at = datetime()
		`, relType)

		if err := runBatched(ctx, session, cypher, rows); err != nil {
			return classify("import relationships", err)
		}
	}

	logger.Info("Graph import complete", "nodes", len(nodes), "relationships", len(rels))
	return nil
}

// ClearDatabase wipes every node and relationship. Used only for
// re-seeding.
func (s *GraphStore) ClearDatabase(ctx context.Context) error {
	if s.driver == nil {
		return &StoreError{Kind: ErrConnection, Op: "clear", Err: fmt.Errorf("store is not connected")}
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	if _, err := session.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return classify("clear", err)
	}
	logger.Info("Graph store cleared")
	return nil
}

// Query executes an arbitrary parameterized pattern query and maps all
// graph values out of the result records.
func (s *GraphStore) Query(ctx context.Context, cypher string, params map[string]any) (*QueryData, error) {
	if s.driver == nil {
		return nil, &StoreError{Kind: ErrConnection, Op: "query", Err: fmt.Errorf("store is not connected")}
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, classify("query", err)
	}

	data := &QueryData{}
	seenNodes := make(map[string]bool)
	seenRels := make(map[string]bool)

	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			value, _ := record.Get(key)
			row[key] = value
			collectGraphValues(data, value, seenNodes, seenRels)
		}
		data.Records = append(data.Records, row)
	}
	if err := result.Err(); err != nil {
		return nil, classify("query", err)
	}
	return data, nil
}

// Stats returns aggregate counts for the stored graph.
func (s *GraphStore) Stats(ctx context.Context) (*Stats, error) {
	if s.driver == nil {
		return nil, &StoreError{Kind: ErrConnection, Op: "stats", Err: fmt.Errorf("store is not connected")}
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	stats := &Stats{
		NodeTypes:         make(map[string]int64),
		RelationshipTypes: make(map[string]int64),
	}

	if err := s.countInto(ctx, session, "MATCH (n) RETURN count(n) AS c", &stats.NodeCount); err != nil {
		return nil, err
	}
	if err := s.countInto(ctx, session, "MATCH ()-[r]->() RETURN count(r) AS c", &stats.RelationshipCount); err != nil {
		return nil, err
	}

	result, err := session.Run(ctx, "MATCH (n) RETURN n.type AS t, count(*) AS c", nil)
	if err != nil {
		return nil, classify("stats", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		t, _ := record.Get("t")
		c, _ := record.Get("c")
		if name, ok := t.(string); ok {
			stats.NodeTypes[name], _ = c.(int64)
		}
	}
	if err := result.Err(); err != nil {
		return nil, classify("stats", err)
	}

	result, err = session.Run(ctx, "MATCH ()-[r]->() RETURN type(r) AS t, count(*) AS c", nil)
	if err != nil {
		return nil, classify("stats", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		t, _ := record.Get("t")
		c, _ := record.Get("c")
		if name, ok := t.(string); ok {
			stats.RelationshipTypes[name], _ = c.(int64)
		}
	}
	if err := result.Err(); err != nil {
		return nil, classify("stats", err)
	}

	return stats, nil
}

func (s *GraphStore) countInto(ctx context.Context, session neo4j.SessionWithContext, cypher string, out *int64) error {
	result, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return classify("stats", err)
	}
	if result.Next(ctx) {
		c, _ := result.Record().Get("c")
		*out, _ = c.(int64)
	}
	return classify("stats", result.Err())
}

func runBatched(ctx context.Context, session neo4j.SessionWithContext, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += importBatchSize {
		end := start + importBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := session.Run(ctx, cypher, map[string]any{"rows": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

func groupNodeRows(nodes []graph.Node) map[graph.NodeType][]map[string]any {
	grouped := make(map[graph.NodeType][]map[string]any)
	for _, n := range nodes {
		grouped[n.Type] = append(grouped[n.Type], map[string]any{
			"id":         n.ID,
			"type":       string(n.Type),
			"name":       n.Name,
			"props":      sanitizeProps(n.Properties, n.Metadata),
			"created_at": n.Metadata.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return grouped
}

func groupRelRows(rels []graph.Relationship) map[graph.RelType][]map[string]any {
	grouped := make(map[graph.RelType][]map[string]any)
	for _, r := range rels {
		grouped[r.Type] = append(grouped[r.Type], map[string]any{
			"id":         r.ID,
			"source":     r.Source,
			"target":     r.Target,
			"props":      sanitizeProps(r.Properties, r.Metadata),
			"created_at": r.Metadata.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return grouped
}
