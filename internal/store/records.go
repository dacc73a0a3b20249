package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"codegraph/internal/graph"
)

// sanitizeProps flattens extractor properties into values the driver can
// store. Neo4j properties are scalars or homogeneous lists, so nested
// maps and mixed structures are serialized to JSON strings. Provenance
// metadata rides along as regular properties.
func sanitizeProps(props map[string]any, meta graph.Metadata) map[string]any {
	out := make(map[string]any, len(props)+3)
	for key, value := range props {
		out[key] = sanitizeValue(value)
	}
	if meta.SourceFile != "" {
		out["source_file"] = meta.SourceFile
	}
	if meta.Package != "" {
		out["source_package"] = meta.Package
	}
	if meta.Confidence > 0 {
		out["confidence"] = meta.Confidence
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []string:
		return v
	case []any:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = sanitizeValue(item)
		}
		return list
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}

// collectGraphValues walks a record value and appends every node,
// relationship and path it contains, deduplicating by element id.
func collectGraphValues(data *QueryData, value any, seenNodes, seenRels map[string]bool) {
	switch v := value.(type) {
	case dbtype.Node:
		appendNode(data, v, seenNodes)
	case dbtype.Relationship:
		appendRelationship(data, v, seenRels)
	case dbtype.Path:
		for _, n := range v.Nodes {
			appendNode(data, n, seenNodes)
		}
		for _, r := range v.Relationships {
			appendRelationship(data, r, seenRels)
		}
	case []any:
		for _, item := range v {
			collectGraphValues(data, item, seenNodes, seenRels)
		}
	}
}

func appendNode(data *QueryData, n dbtype.Node, seen map[string]bool) {
	mapped := mapNode(n)
	key := mapped.ID
	if key == "" {
		key = n.ElementId
	}
	if seen[key] {
		return
	}
	seen[key] = true
	data.Nodes = append(data.Nodes, mapped)
}

func appendRelationship(data *QueryData, r dbtype.Relationship, seen map[string]bool) {
	mapped := mapRelationship(r)
	key := mapped.ID
	if key == "" {
		key = r.ElementId
	}
	if seen[key] {
		return
	}
	seen[key] = true
	data.Relationships = append(data.Relationships, mapped)
}

// mapNode converts a driver node back into the extractor model. The id,
// type and name properties written by ImportData are lifted out; the
// rest stay as plain properties.
func mapNode(n dbtype.Node) graph.Node {
	node := graph.Node{
		Properties: make(map[string]any, len(n.Props)),
	}
	for key, value := range n.Props {
		switch key {
		case "id":
			node.ID, _ = value.(string)
		case "type":
			if t, ok := value.(string); ok {
				node.Type = graph.NodeType(t)
			}
		case "name":
			node.Name, _ = value.(string)
		case "created_at":
			if s, ok := value.(string); ok {
				node.Metadata.CreatedAt, _ = time.Parse(time.RFC3339, s)
			}
		case "source_file":
			node.Metadata.SourceFile, _ = value.(string)
		case "source_package":
			node.Metadata.Package, _ = value.(string)
		case "confidence":
			node.Metadata.Confidence, _ = value.(float64)
		case "updated_at":
			// write-side bookkeeping, not part of the model
		default:
			node.Properties[key] = value
		}
	}
	if node.Type == "" && len(n.Labels) > 0 {
		node.Type = graph.NodeType(n.Labels[0])
	}
	return node
}

func mapRelationship(r dbtype.Relationship) graph.Relationship {
	rel := graph.Relationship{
		Type:       graph.RelType(r.Type),
		Properties: make(map[string]any, len(r.Props)),
	}
	for key, value := range r.Props {
		switch key {
		case "id":
			rel.ID, _ = value.(string)
		case "source":
			rel.Source, _ = value.(string)
		case "target":
			rel.Target, _ = value.(string)
		case "created_at":
			if s, ok := value.(string); ok {
				rel.Metadata.CreatedAt, _ = time.Parse(time.RFC3339, s)
			}
		case "confidence":
			rel.Metadata.Confidence, _ = value.(float64)
		case "updated_at":
		default:
			rel.Properties[key] = value
		}
	}
	return rel
}
