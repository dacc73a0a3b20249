package graph

import "time"

// NodeType represents the category of a graph node
type NodeType string

const (
	NodeTypePackage       NodeType = "Package"
	NodeTypeFile          NodeType = "File"
	NodeTypeDocument      NodeType = "Document"
	NodeTypeFunction      NodeType = "Function"
	NodeTypeClass         NodeType = "Class"
	NodeTypeAPI           NodeType = "API"
	NodeTypeSchemaEntity  NodeType = "SchemaEntity"
	NodeTypeDatabaseTable NodeType = "DatabaseTable"
	NodeTypeConcept       NodeType = "Concept"
)

// Metadata carries provenance information for nodes and relationships
type Metadata struct {
	CreatedAt  time.Time `json:"created_at"`
	SourceFile string    `json:"source_file,omitempty"`
	Package    string    `json:"package,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Node represents a typed entity in the property graph
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	Metadata   Metadata       `json:"metadata"`
}

// Prop returns a string property, or empty string when absent or non-string
func (n *Node) Prop(key string) string {
	if n.Properties == nil {
		return ""
	}
	if v, ok := n.Properties[key].(string); ok {
		return v
	}
	return ""
}
