package extract

import (
	"bufio"
	"bytes"
	"context"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// importRef is one import statement found in a source file.
type importRef struct {
	Target string // import path as written
	Line   int
}

// importFile is the raw form of one scanned source file.
type importFile struct {
	Path     string
	Language string
	Imports  []importRef
}

type rawImports struct {
	Root  string
	Files []importFile
}

// ImportExtractor resolves module-to-module import edges. Go files are
// parsed with go/parser in imports-only mode; JavaScript/TypeScript files
// are line-scanned for import and require statements.
type ImportExtractor struct {
	now func() time.Time
}

func NewImportExtractor() *ImportExtractor {
	return &ImportExtractor{now: time.Now}
}

func (e *ImportExtractor) Name() string { return "import" }

var (
	jsImportRe  = regexp.MustCompile(`^\s*import\s+(?:[\w{}*,\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	pyImportRe  = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)
)

func (e *ImportExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	raw := &rawImports{Root: root}

	err := walkTree(root, 0, func(rel string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ext := strings.ToLower(filepath.Ext(rel))

		var file importFile
		switch ext {
		case ".go":
			refs, err := goImports(filepath.Join(root, rel))
			if err != nil {
				logger.Warn("Skipping unparsable Go file", "path", rel, "error", err)
				return nil
			}
			file = importFile{Path: rel, Language: "go", Imports: refs}
		case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
			data, err := readFileLimited(filepath.Join(root, rel), 2<<20)
			if err != nil {
				return nil
			}
			file = importFile{Path: rel, Language: "javascript", Imports: scanLineImports(data, jsImportRe, jsRequireRe)}
		case ".py":
			data, err := readFileLimited(filepath.Join(root, rel), 2<<20)
			if err != nil {
				return nil
			}
			file = importFile{Path: rel, Language: "python", Imports: scanLineImports(data, pyImportRe)}
		default:
			return nil
		}

		if len(file.Imports) > 0 {
			raw.Files = append(raw.Files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(raw.Files, func(i, j int) bool { return raw.Files[i].Path < raw.Files[j].Path })
	return raw, nil
}

func (e *ImportExtractor) Validate(raw RawData) bool {
	_, ok := raw.(*rawImports)
	return ok
}

func (e *ImportExtractor) SourceCount(raw RawData) int {
	r, ok := raw.(*rawImports)
	if !ok {
		return 0
	}
	return len(r.Files)
}

func (e *ImportExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	r, ok := raw.(*rawImports)
	if !ok {
		return nil, errWrongRawType("import")
	}

	res := &graph.ExtractionResult{}
	createdAt := e.now()

	scanned := make(map[string]string, len(r.Files)) // rel path -> file node id
	for _, f := range r.Files {
		id := graph.NodeID(graph.NodeTypeFile, f.Path)
		scanned[f.Path] = id
		res.AddNode(graph.Node{
			ID:   id,
			Type: graph.NodeTypeFile,
			Name: filepath.Base(f.Path),
			Properties: map[string]any{
				"file_path": f.Path,
				"language":  f.Language,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: f.Path},
		})
	}

	externals := make(map[string]bool)
	for _, f := range r.Files {
		srcID := scanned[f.Path]
		for _, ref := range f.Imports {
			if target, ok := resolveRelativeImport(f.Path, ref.Target, scanned); ok {
				if target == srcID {
					continue
				}
				res.AddRelationship(graph.Relationship{
					ID:     graph.RelationshipID(graph.RelImports, srcID, target),
					Type:   graph.RelImports,
					Source: srcID,
					Target: target,
					Properties: map[string]any{
						"import_path": ref.Target,
						"line":        ref.Line,
					},
					Metadata: graph.Metadata{CreatedAt: createdAt},
				})
				continue
			}
			if strings.HasPrefix(ref.Target, ".") {
				// Relative import to a file outside the scan set.
				continue
			}

			pkgID := graph.NodeID(graph.NodeTypePackage, ref.Target)
			if !externals[pkgID] {
				externals[pkgID] = true
				res.AddNode(graph.Node{
					ID:   pkgID,
					Type: graph.NodeTypePackage,
					Name: ref.Target,
					Properties: map[string]any{
						"external": true,
					},
					Metadata: graph.Metadata{CreatedAt: createdAt},
				})
			}
			res.AddRelationship(graph.Relationship{
				ID:     graph.RelationshipID(graph.RelImports, srcID, pkgID),
				Type:   graph.RelImports,
				Source: srcID,
				Target: pkgID,
				Properties: map[string]any{
					"import_path": ref.Target,
					"line":        ref.Line,
				},
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	return res, nil
}

func goImports(path string) ([]importRef, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var refs []importRef
	for _, imp := range file.Imports {
		target, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		refs = append(refs, importRef{
			Target: target,
			Line:   fset.Position(imp.Pos()).Line,
		})
	}
	return refs, nil
}

func scanLineImports(data []byte, patterns ...*regexp.Regexp) []importRef {
	var refs []importRef
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			target := ""
			for _, group := range m[1:] {
				if group != "" {
					target = group
					break
				}
			}
			if target == "" || seen[target] {
				continue
			}
			seen[target] = true
			refs = append(refs, importRef{Target: target, Line: lineNo})
		}
	}
	return refs
}

// resolveRelativeImport maps a relative JS/TS import to a scanned file,
// trying the usual extension and index-file conventions.
func resolveRelativeImport(fromPath, target string, scanned map[string]string) (string, bool) {
	if !strings.HasPrefix(target, ".") {
		return "", false
	}
	base := filepath.ToSlash(filepath.Join(filepath.Dir(fromPath), target))

	candidates := []string{base}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".py"} {
		candidates = append(candidates, base+ext)
	}
	for _, index := range []string{"/index.ts", "/index.js"} {
		candidates = append(candidates, base+index)
	}

	for _, c := range candidates {
		if id, ok := scanned[c]; ok {
			return id, true
		}
	}
	return "", false
}
