package graph

// RelType represents the type of a directed relationship between nodes
type RelType string

const (
	RelContains   RelType = "CONTAINS"
	RelDependsOn  RelType = "DEPENDS_ON"
	RelDocuments  RelType = "DOCUMENTS"
	RelReferences RelType = "REFERENCES"
	RelImplements RelType = "IMPLEMENTS"
	RelExtends    RelType = "EXTENDS"
	RelUsesType   RelType = "USES_TYPE"
	RelCalls      RelType = "CALLS"
	RelImports    RelType = "IMPORTS"
	RelDefines    RelType = "DEFINES"
)

// Relationship represents a typed directed edge between two nodes
type Relationship struct {
	ID         string         `json:"id"`
	Type       RelType        `json:"type"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Properties map[string]any `json:"properties"`
	Metadata   Metadata       `json:"metadata"`
}
