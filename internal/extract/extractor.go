package extract

import (
	"context"
	"fmt"
	"sort"

	"codegraph/internal/graph"
)

// RawData is the intermediate product of a scan, before transformation
// into graph nodes and relationships. Each extractor defines its own
// concrete raw type and type-asserts it back in Transform.
type RawData any

// Extractor turns one category of source material into graph nodes and
// relationships. ExtractRaw scans the filesystem; Transform is a
// deterministic mapping from raw data to an ExtractionResult using the
// identity generators; Validate and SourceCount exist for observability
// and testing.
type Extractor interface {
	Name() string
	ExtractRaw(ctx context.Context, root string) (RawData, error)
	Transform(raw RawData) (*graph.ExtractionResult, error)
	Validate(raw RawData) bool
	SourceCount(raw RawData) int
}

func errWrongRawType(category string) error {
	return fmt.Errorf("extractor %s: raw data has unexpected type", category)
}

// Registry maps category names to extractor factories. Adding a new
// extractor is a registration, not a branch in calling code.
type Registry struct {
	factories map[string]func() Extractor
}

// NewRegistry returns a registry with the default extractor set.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]func() Extractor)}
	r.Register("package", func() Extractor { return NewPackageExtractor() })
	r.Register("schema", func() Extractor { return NewSchemaExtractor() })
	r.Register("document", func() Extractor { return NewDocumentExtractor() })
	r.Register("function", func() Extractor { return NewFunctionExtractor() })
	r.Register("import", func() Extractor { return NewImportExtractor() })
	return r
}

// Register adds a factory under the given category name.
func (r *Registry) Register(name string, factory func() Extractor) {
	r.factories[name] = factory
}

// Get returns a fresh extractor for the category.
func (r *Registry) Get(name string) (Extractor, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor category %q", name)
	}
	return factory(), nil
}

// Categories returns the registered category names in sorted order.
func (r *Registry) Categories() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
