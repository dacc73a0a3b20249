package extract

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/mod/modfile"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// manifestDep is one declared dependency of a manifest.
type manifestDep struct {
	Name     string
	Version  string
	Indirect bool
}

// manifestInfo is the raw form of one package manifest.
type manifestInfo struct {
	Path        string // relative path of the manifest file
	Kind        string // "npm" or "gomod"
	Name        string
	Version     string
	Description string
	Deps        []manifestDep
}

type rawManifests struct {
	Root      string
	Manifests []manifestInfo
}

// PackageExtractor reads package manifests (package.json, go.mod) and
// produces Package and File nodes plus DEPENDS_ON edges.
type PackageExtractor struct {
	now func() time.Time
}

func NewPackageExtractor() *PackageExtractor {
	return &PackageExtractor{now: time.Now}
}

func (e *PackageExtractor) Name() string { return "package" }

func (e *PackageExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	raw := &rawManifests{Root: root}

	err := walkTree(root, 0, func(rel string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch d.Name() {
		case "package.json":
			info, err := parseNpmManifest(filepath.Join(root, rel), rel)
			if err != nil {
				logger.Warn("Skipping unparsable package.json", "path", rel, "error", err)
				return nil
			}
			raw.Manifests = append(raw.Manifests, info)
		case "go.mod":
			info, err := parseGoModManifest(filepath.Join(root, rel), rel)
			if err != nil {
				logger.Warn("Skipping unparsable go.mod", "path", rel, "error", err)
				return nil
			}
			raw.Manifests = append(raw.Manifests, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(raw.Manifests, func(i, j int) bool {
		return raw.Manifests[i].Path < raw.Manifests[j].Path
	})
	return raw, nil
}

func (e *PackageExtractor) Validate(raw RawData) bool {
	_, ok := raw.(*rawManifests)
	return ok
}

func (e *PackageExtractor) SourceCount(raw RawData) int {
	r, ok := raw.(*rawManifests)
	if !ok {
		return 0
	}
	return len(r.Manifests)
}

func (e *PackageExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	r, ok := raw.(*rawManifests)
	if !ok {
		return nil, errWrongRawType("package")
	}

	res := &graph.ExtractionResult{}
	createdAt := e.now()

	for _, m := range r.Manifests {
		pkgID := graph.NodeID(graph.NodeTypePackage, m.Name)
		res.AddNode(graph.Node{
			ID:   pkgID,
			Type: graph.NodeTypePackage,
			Name: m.Name,
			Properties: map[string]any{
				"path":        filepath.ToSlash(filepath.Dir(m.Path)),
				"version":     m.Version,
				"description": m.Description,
				"manifest":    m.Kind,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: m.Path},
		})

		fileID := graph.NodeID(graph.NodeTypeFile, m.Path)
		res.AddNode(graph.Node{
			ID:   fileID,
			Type: graph.NodeTypeFile,
			Name: filepath.Base(m.Path),
			Properties: map[string]any{
				"file_path": m.Path,
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: m.Path, Package: m.Name},
		})
		res.AddRelationship(graph.Relationship{
			ID:       graph.RelationshipID(graph.RelContains, pkgID, fileID),
			Type:     graph.RelContains,
			Source:   pkgID,
			Target:   fileID,
			Metadata: graph.Metadata{CreatedAt: createdAt},
		})

		for _, dep := range m.Deps {
			depID := graph.NodeID(graph.NodeTypePackage, dep.Name)
			res.AddNode(graph.Node{
				ID:   depID,
				Type: graph.NodeTypePackage,
				Name: dep.Name,
				Properties: map[string]any{
					"version":  dep.Version,
					"external": true,
				},
				Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: m.Path},
			})
			res.AddRelationship(graph.Relationship{
				ID:     graph.RelationshipID(graph.RelDependsOn, pkgID, depID),
				Type:   graph.RelDependsOn,
				Source: pkgID,
				Target: depID,
				Properties: map[string]any{
					"version_constraint": dep.Version,
					"indirect":           dep.Indirect,
				},
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	return res, nil
}

type npmManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parseNpmManifest(path, rel string) (manifestInfo, error) {
	data, err := readFileLimited(path, 1<<20)
	if err != nil {
		return manifestInfo{}, err
	}
	var m npmManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifestInfo{}, err
	}
	if m.Name == "" {
		m.Name = filepath.ToSlash(filepath.Dir(rel))
	}

	info := manifestInfo{
		Path:        rel,
		Kind:        "npm",
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
	}
	info.Deps = append(info.Deps, sortedDeps(m.Dependencies, false)...)
	info.Deps = append(info.Deps, sortedDeps(m.DevDependencies, true)...)
	return info, nil
}

func parseGoModManifest(path, rel string) (manifestInfo, error) {
	data, err := readFileLimited(path, 1<<20)
	if err != nil {
		return manifestInfo{}, err
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return manifestInfo{}, err
	}
	if f.Module == nil {
		return manifestInfo{}, errWrongRawType("package")
	}

	info := manifestInfo{
		Path: rel,
		Kind: "gomod",
		Name: f.Module.Mod.Path,
	}
	for _, req := range f.Require {
		info.Deps = append(info.Deps, manifestDep{
			Name:     req.Mod.Path,
			Version:  req.Mod.Version,
			Indirect: req.Indirect,
		})
	}
	sort.Slice(info.Deps, func(i, j int) bool { return info.Deps[i].Name < info.Deps[j].Name })
	return info, nil
}

func sortedDeps(deps map[string]string, indirect bool) []manifestDep {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]manifestDep, 0, len(names))
	for _, name := range names {
		out = append(out, manifestDep{Name: name, Version: deps[name], Indirect: indirect})
	}
	return out
}
