package extract

import (
	"go/ast"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// goSource analyzes the Go portion of a repository with go/packages and
// a VTA call graph. VTA resolves interface calls more precisely than the
// cheaper algorithms.
type goSource struct {
	root        string
	fset        *token.FileSet
	pkgs        []*packages.Package
	projectPkgs map[string]bool

	closureParent map[string]string
}

func analyzeGoSource(root string) (*goSource, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedDeps |
			packages.NeedImports,
		Dir:  root,
		Fset: fset,
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, err
	}

	var usable []*packages.Package
	projectPkgs := make(map[string]bool)
	for _, pkg := range pkgs {
		if len(pkg.Syntax) == 0 {
			continue
		}
		usable = append(usable, pkg)
		if pkg.PkgPath != "" {
			projectPkgs[pkg.PkgPath] = true
		}
	}

	absRoot, _ := filepath.Abs(root)
	return &goSource{
		root:          absRoot,
		fset:          fset,
		pkgs:          usable,
		projectPkgs:   projectPkgs,
		closureParent: make(map[string]string),
	}, nil
}

// declsAndCalls builds function declarations and call edges from the SSA
// call graph. Closures are folded into their parent functions' call
// chains so the graph stays at declaration granularity.
func (g *goSource) declsAndCalls() ([]sourceDecl, []callEdge, error) {
	prog, _ := ssautil.AllPackages(g.pkgs, ssa.InstantiateGenerics)
	prog.Build()

	cg := vta.CallGraph(ssautil.AllFunctions(prog), nil)

	// First pass: identify closures and map them to parent functions.
	for fn := range cg.Nodes {
		if fn == nil || !g.isProjectFunction(fn) {
			continue
		}
		if isClosure(fn) {
			g.closureParent[fn.String()] = parentFunctionName(fn)
		}
	}

	// Second pass: declarations, skipping closures and synthetics.
	var decls []sourceDecl
	declared := make(map[string]bool)
	for fn := range cg.Nodes {
		if fn == nil || !g.isProjectFunction(fn) || isClosure(fn) {
			continue
		}
		if fn.Synthetic != "" && fn.Pos() == token.NoPos {
			continue
		}
		decl := g.functionDecl(fn)
		if declared[decl.Qualifier] {
			continue
		}
		declared[decl.Qualifier] = true
		decls = append(decls, decl)
	}

	// Third pass: call edges, resolved through closure parents and
	// deduplicated.
	var calls []callEdge
	seen := make(map[string]bool)
	for fn, node := range cg.Nodes {
		if fn == nil || node == nil {
			continue
		}
		caller := g.resolveToParent(fn.String())
		if !declared[caller] {
			continue
		}
		for _, edge := range node.Out {
			if edge.Callee == nil || edge.Callee.Func == nil {
				continue
			}
			callee := g.resolveToParent(edge.Callee.Func.String())
			if !declared[callee] || callee == caller {
				continue
			}
			key := caller + "->" + callee
			if seen[key] {
				continue
			}
			seen[key] = true

			ce := callEdge{Caller: caller, Callee: callee}
			if edge.Site != nil && edge.Site.Pos() != token.NoPos {
				pos := g.fset.Position(edge.Site.Pos())
				ce.File = g.relPath(pos.Filename)
				ce.Line = pos.Line
			}
			calls = append(calls, ce)
		}
	}

	return decls, calls, nil
}

func (g *goSource) functionDecl(fn *ssa.Function) sourceDecl {
	pos := g.fset.Position(fn.Pos())

	pkgPath := ""
	if fn.Pkg != nil {
		pkgPath = fn.Pkg.Pkg.Path()
	}

	kind := "function"
	if fn.Signature.Recv() != nil {
		kind = "method"
	}

	return sourceDecl{
		Language:  "go",
		File:      g.relPath(pos.Filename),
		Name:      fn.Name(),
		Qualifier: fn.String(),
		Kind:      kind,
		Line:      pos.Line,
		Signature: fn.Signature.String(),
		Doc:       goDocComment(fn),
		Package:   pkgPath,
		Exported:  ast.IsExported(fn.Name()),
	}
}

func (g *goSource) isProjectFunction(fn *ssa.Function) bool {
	if fn.Pkg == nil {
		return false
	}
	return g.projectPkgs[fn.Pkg.Pkg.Path()]
}

func (g *goSource) resolveToParent(fnName string) string {
	if parent, ok := g.closureParent[fnName]; ok {
		// Nested closures ($1$1) resolve recursively.
		return g.resolveToParent(parent)
	}
	return fnName
}

func (g *goSource) relPath(path string) string {
	if g.root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(g.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// isClosure checks whether the SSA function is an anonymous function;
// SSA names those with a $N suffix, e.g. "extractCmd$1".
func isClosure(fn *ssa.Function) bool {
	return strings.Contains(fn.Name(), "$")
}

func parentFunctionName(fn *ssa.Function) string {
	name := fn.String()
	if idx := strings.LastIndex(name, "$"); idx != -1 {
		return name[:idx]
	}
	return name
}

func goDocComment(fn *ssa.Function) string {
	if fn.Syntax() == nil {
		return ""
	}
	if decl, ok := fn.Syntax().(*ast.FuncDecl); ok && decl.Doc != nil {
		return strings.TrimSpace(decl.Doc.Text())
	}
	return ""
}
