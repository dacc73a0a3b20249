package extract

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// sourceDecl is one function/class/method declaration found in source.
type sourceDecl struct {
	Language  string
	File      string // relative path
	Name      string
	Qualifier string // unique within the repository; feeds the node id
	Kind      string // function, method, class, interface
	Line      int
	Signature string
	Doc       string
	Package   string
	Exported  bool
}

// callEdge is one resolved call between two declared functions.
type callEdge struct {
	Caller string // qualifier
	Callee string // qualifier
	File   string
	Line   int
}

type rawFunctions struct {
	Root  string
	Files []string
	Decls []sourceDecl
	Calls []callEdge
}

// FunctionExtractor finds function and class declarations. Go sources go
// through go/packages and a VTA call graph; JavaScript, TypeScript and
// Python go through tree-sitter declaration queries.
type FunctionExtractor struct {
	now func() time.Time
}

func NewFunctionExtractor() *FunctionExtractor {
	return &FunctionExtractor{now: time.Now}
}

func (e *FunctionExtractor) Name() string { return "function" }

func (e *FunctionExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	raw := &rawFunctions{Root: root}
	seenFiles := make(map[string]bool)

	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		src, err := analyzeGoSource(root)
		if err != nil {
			logger.Warn("Go analysis failed, continuing with other languages", "error", err)
		} else {
			decls, calls, err := src.declsAndCalls()
			if err != nil {
				logger.Warn("Go call graph construction failed", "error", err)
			} else {
				raw.Decls = append(raw.Decls, decls...)
				raw.Calls = append(raw.Calls, calls...)
				for _, d := range decls {
					if d.File != "" && !seenFiles[d.File] {
						seenFiles[d.File] = true
						raw.Files = append(raw.Files, d.File)
					}
				}
			}
		}
	}

	err := walkTree(root, 0, func(rel string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lang, queryKey, ok := languageForExt(strings.ToLower(filepath.Ext(rel)))
		if !ok {
			return nil
		}
		source, err := readFileLimited(filepath.Join(root, rel), 2<<20)
		if err != nil {
			logger.Warn("Skipping unreadable source file", "path", rel, "error", err)
			return nil
		}
		decls, err := parseDeclarations(rel, lang, queryKey, source)
		if err != nil {
			logger.Warn("Skipping unparsable source file", "path", rel, "error", err)
			return nil
		}
		if len(decls) > 0 && !seenFiles[rel] {
			seenFiles[rel] = true
			raw.Files = append(raw.Files, rel)
		}
		raw.Decls = append(raw.Decls, decls...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(raw.Files)
	sort.Slice(raw.Decls, func(i, j int) bool {
		if raw.Decls[i].File != raw.Decls[j].File {
			return raw.Decls[i].File < raw.Decls[j].File
		}
		if raw.Decls[i].Line != raw.Decls[j].Line {
			return raw.Decls[i].Line < raw.Decls[j].Line
		}
		return raw.Decls[i].Qualifier < raw.Decls[j].Qualifier
	})
	sort.Slice(raw.Calls, func(i, j int) bool {
		if raw.Calls[i].Caller != raw.Calls[j].Caller {
			return raw.Calls[i].Caller < raw.Calls[j].Caller
		}
		return raw.Calls[i].Callee < raw.Calls[j].Callee
	})
	return raw, nil
}

func (e *FunctionExtractor) Validate(raw RawData) bool {
	_, ok := raw.(*rawFunctions)
	return ok
}

func (e *FunctionExtractor) SourceCount(raw RawData) int {
	r, ok := raw.(*rawFunctions)
	if !ok {
		return 0
	}
	return len(r.Files)
}

func (e *FunctionExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	r, ok := raw.(*rawFunctions)
	if !ok {
		return nil, errWrongRawType("function")
	}

	res := &graph.ExtractionResult{}
	createdAt := e.now()

	for _, file := range r.Files {
		res.AddNode(graph.Node{
			ID:   graph.NodeID(graph.NodeTypeFile, file),
			Type: graph.NodeTypeFile,
			Name: filepath.Base(file),
			Properties: map[string]any{
				"file_path": file,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: file},
		})
	}

	declIDs := make(map[string]string, len(r.Decls))
	for _, d := range r.Decls {
		nodeType := graph.NodeTypeFunction
		if d.Kind == "class" || d.Kind == "interface" {
			nodeType = graph.NodeTypeClass
		}

		id := graph.NodeID(nodeType, d.Qualifier)
		declIDs[d.Qualifier] = id
		res.AddNode(graph.Node{
			ID:   id,
			Type: nodeType,
			Name: d.Name,
			Properties: map[string]any{
				"file_path": d.File,
				"line":      d.Line,
				"language":  d.Language,
				"kind":      d.Kind,
				"signature": d.Signature,
				"exported":  d.Exported,
				"doc":       d.Doc,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: d.File, Package: d.Package},
		})

		if d.File != "" {
			fileID := graph.NodeID(graph.NodeTypeFile, d.File)
			res.AddRelationship(graph.Relationship{
				ID:       graph.RelationshipID(graph.RelDefines, fileID, id),
				Type:     graph.RelDefines,
				Source:   fileID,
				Target:   id,
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	for _, c := range r.Calls {
		srcID, okSrc := declIDs[c.Caller]
		tgtID, okTgt := declIDs[c.Callee]
		if !okSrc || !okTgt {
			continue
		}
		res.AddRelationship(graph.Relationship{
			ID:     graph.RelationshipID(graph.RelCalls, srcID, tgtID),
			Type:   graph.RelCalls,
			Source: srcID,
			Target: tgtID,
			Properties: map[string]any{
				"call_site_file": c.File,
				"call_site_line": c.Line,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt},
		})
	}

	return res, nil
}
