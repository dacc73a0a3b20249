package correlate

import (
	"strings"

	"codegraph/internal/graph"
)

// Pattern is one heuristic rule inferring a relationship between nodes
// of different origin categories. Predicate is evaluated on an ordered
// (a, b) pair; when it matches, a relationship a-[Type]->b is emitted
// with the pattern's confidence.
type Pattern struct {
	Name       string
	SourceType graph.NodeType
	TargetType graph.NodeType
	Type       graph.RelType
	Confidence float64
	Predicate  func(a, b *graph.Node) bool
}

// similarityThreshold is the name-similarity cutoff above which two
// differently typed nodes are considered related. Tunable default.
const similarityThreshold = 0.8

// DefaultPatterns is the ordered pattern table applied by the analyzer.
var DefaultPatterns = []Pattern{
	{
		Name:       "document_describes_package",
		SourceType: graph.NodeTypeDocument,
		TargetType: graph.NodeTypePackage,
		Type:       graph.RelDocuments,
		Confidence: 0.9,
		Predicate: func(doc, pkg *graph.Node) bool {
			docPath := doc.Prop("file_path")
			pkgPath := pkg.Prop("path")
			if docPath == "" || pkgPath == "" || pkgPath == "." {
				return false
			}
			return strings.HasPrefix(docPath, strings.TrimSuffix(pkgPath, "/")+"/")
		},
	},
	{
		Name:       "document_mentions_entity",
		SourceType: graph.NodeTypeDocument,
		TargetType: graph.NodeTypeFunction,
		Type:       graph.RelReferences,
		Confidence: 0.7,
		Predicate: func(doc, fn *graph.Node) bool {
			title := strings.ToLower(doc.Name)
			if len(fn.Name) < 4 {
				return false
			}
			return strings.Contains(title, strings.ToLower(fn.Name))
		},
	},
	{
		Name:       "package_contains_function",
		SourceType: graph.NodeTypePackage,
		TargetType: graph.NodeTypeFunction,
		Type:       graph.RelContains,
		Confidence: 0.85,
		Predicate: func(pkg, fn *graph.Node) bool {
			pkgPath := pkg.Prop("path")
			fnPath := fn.Prop("file_path")
			if pkgPath == "" || fnPath == "" {
				return false
			}
			if pkgPath == "." {
				return !strings.Contains(fnPath, "/")
			}
			return strings.HasPrefix(fnPath, strings.TrimSuffix(pkgPath, "/")+"/")
		},
	},
	{
		Name:       "class_uses_schema_type",
		SourceType: graph.NodeTypeClass,
		TargetType: graph.NodeTypeSchemaEntity,
		Type:       graph.RelUsesType,
		Confidence: 0.6,
		Predicate: func(class, entity *graph.Node) bool {
			return NameSimilarity(class.Name, entity.Name) > similarityThreshold
		},
	},
	{
		Name:       "function_uses_schema_type",
		SourceType: graph.NodeTypeFunction,
		TargetType: graph.NodeTypeSchemaEntity,
		Type:       graph.RelUsesType,
		Confidence: 0.6,
		Predicate: func(fn, entity *graph.Node) bool {
			if len(entity.Name) < 4 {
				return false
			}
			return strings.Contains(strings.ToLower(fn.Name), strings.ToLower(entity.Name))
		},
	},
	{
		Name:       "similar_names",
		SourceType: "", // any pair of differently typed nodes
		TargetType: "",
		Type:       graph.RelReferences,
		Confidence: 0.5,
		Predicate: func(a, b *graph.Node) bool {
			if a.Type == b.Type {
				return false
			}
			if len(a.Name) < 4 || len(b.Name) < 4 {
				return false
			}
			return NameSimilarity(a.Name, b.Name) > similarityThreshold
		},
	},
}
