package extract

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// defaultDocDepth bounds how deep the document walk descends; deeply
// nested markdown is almost always generated output.
const defaultDocDepth = 4

// docInfo is the raw form of one document.
type docInfo struct {
	Path        string
	Title       string
	Description string
	Headings    int
	Words       int
	Size        int64
	Links       []string // relative link targets, normalized against Path
	Frontmatter map[string]any
}

type rawDocuments struct {
	Root string
	Docs []docInfo
}

// DocumentExtractor walks the tree for markdown and plain-text documents
// and produces Document nodes plus REFERENCES edges between linked
// documents.
type DocumentExtractor struct {
	now      func() time.Time
	maxDepth int
}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{now: time.Now, maxDepth: defaultDocDepth}
}

func (e *DocumentExtractor) Name() string { return "document" }

func (e *DocumentExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	raw := &rawDocuments{Root: root}

	err := walkTree(root, e.maxDepth, func(rel string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ext := strings.ToLower(filepath.Ext(rel))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		data, err := readFileLimited(filepath.Join(root, rel), 4<<20)
		if err != nil {
			logger.Warn("Skipping unreadable document", "path", rel, "error", err)
			return nil
		}

		info := parseDocument(rel, data)
		raw.Docs = append(raw.Docs, info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(raw.Docs, func(i, j int) bool { return raw.Docs[i].Path < raw.Docs[j].Path })
	return raw, nil
}

func (e *DocumentExtractor) Validate(raw RawData) bool {
	_, ok := raw.(*rawDocuments)
	return ok
}

func (e *DocumentExtractor) SourceCount(raw RawData) int {
	r, ok := raw.(*rawDocuments)
	if !ok {
		return 0
	}
	return len(r.Docs)
}

func (e *DocumentExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	r, ok := raw.(*rawDocuments)
	if !ok {
		return nil, errWrongRawType("document")
	}

	res := &graph.ExtractionResult{}
	createdAt := e.now()

	byPath := make(map[string]string, len(r.Docs))
	for _, doc := range r.Docs {
		id := graph.NodeID(graph.NodeTypeDocument, doc.Path)
		byPath[doc.Path] = id

		props := map[string]any{
			"file_path": doc.Path,
			"title":     doc.Title,
			"headings":  doc.Headings,
			"words":     doc.Words,
			"size":      doc.Size,
		}
		if doc.Description != "" {
			props["description"] = doc.Description
		}
		for k, v := range doc.Frontmatter {
			// Frontmatter keys are namespaced so they cannot clobber the
			// extractor's own properties.
			props["fm_"+k] = v
		}

		res.AddNode(graph.Node{
			ID:         id,
			Type:       graph.NodeTypeDocument,
			Name:       doc.Title,
			Properties: props,
			Metadata:   graph.Metadata{CreatedAt: createdAt, SourceFile: doc.Path},
		})
	}

	for _, doc := range r.Docs {
		srcID := byPath[doc.Path]
		for _, link := range doc.Links {
			tgtID, ok := byPath[link]
			if !ok || tgtID == srcID {
				continue
			}
			res.AddRelationship(graph.Relationship{
				ID:     graph.RelationshipID(graph.RelReferences, srcID, tgtID),
				Type:   graph.RelReferences,
				Source: srcID,
				Target: tgtID,
				Properties: map[string]any{
					"via": "markdown_link",
				},
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	return res, nil
}

var (
	mdHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	mdLinkRe    = regexp.MustCompile(`\[[^\]]*\]\(([^)#\s]+)(?:#[^)\s]*)?\)`)
)

func parseDocument(rel string, data []byte) docInfo {
	info := docInfo{Path: rel, Size: int64(len(data))}

	body := data
	if fm, rest, ok := splitFrontmatter(data); ok {
		var parsed map[string]any
		if err := yaml.Unmarshal(fm, &parsed); err == nil {
			info.Frontmatter = parsed
			if t, ok := parsed["title"].(string); ok {
				info.Title = t
			}
			if d, ok := parsed["description"].(string); ok {
				info.Description = d
			}
		}
		body = rest
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		info.Words += len(strings.Fields(line))

		if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
			info.Headings++
			if info.Title == "" {
				info.Title = m[2]
			}
		}
		for _, lm := range mdLinkRe.FindAllStringSubmatch(line, -1) {
			target := lm[1]
			if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
				continue
			}
			resolved := filepath.ToSlash(filepath.Join(filepath.Dir(rel), target))
			info.Links = append(info.Links, resolved)
		}
	}

	if info.Title == "" {
		info.Title = filepath.Base(rel)
	}
	return info
}

// splitFrontmatter splits a leading YAML frontmatter block ("---" fenced)
// from the document body.
func splitFrontmatter(data []byte) (frontmatter, body []byte, ok bool) {
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return nil, data, false
	}
	rest := data[bytes.IndexByte(data, '\n')+1:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data, false
	}
	fm := rest[:end]
	body = rest[end+len("\n---"):]
	if idx := bytes.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = nil
	}
	return fm, body, true
}
