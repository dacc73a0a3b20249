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

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// schemaField is one field of a declarative schema entity.
type schemaField struct {
	Name     string
	Type     string
	Relation string // target entity name for relation fields, empty otherwise
}

// schemaEntity is the raw form of one model/table definition.
type schemaEntity struct {
	Name   string
	Table  string // mapped table name (@@map or SQL table), empty if none
	File   string
	Line   int
	Kind   string // "prisma" or "sql"
	Fields []schemaField
}

type rawSchemas struct {
	Root     string
	Files    []string
	Entities []schemaEntity
}

// SchemaExtractor reads declarative schema definitions (Prisma models,
// SQL CREATE TABLE statements) and produces SchemaEntity and
// DatabaseTable nodes plus REFERENCES edges between related entities.
type SchemaExtractor struct {
	now func() time.Time
}

func NewSchemaExtractor() *SchemaExtractor {
	return &SchemaExtractor{now: time.Now}
}

func (e *SchemaExtractor) Name() string { return "schema" }

func (e *SchemaExtractor) ExtractRaw(ctx context.Context, root string) (RawData, error) {
	raw := &rawSchemas{Root: root}

	err := walkTree(root, 0, func(rel string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ext := strings.ToLower(filepath.Ext(rel))
		if ext != ".prisma" && ext != ".sql" {
			return nil
		}
		data, err := readFileLimited(filepath.Join(root, rel), 2<<20)
		if err != nil {
			logger.Warn("Skipping unreadable schema file", "path", rel, "error", err)
			return nil
		}

		raw.Files = append(raw.Files, rel)
		if ext == ".prisma" {
			raw.Entities = append(raw.Entities, parsePrismaSchema(rel, data)...)
		} else {
			raw.Entities = append(raw.Entities, parseSQLSchema(rel, data)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(raw.Entities, func(i, j int) bool {
		if raw.Entities[i].File != raw.Entities[j].File {
			return raw.Entities[i].File < raw.Entities[j].File
		}
		return raw.Entities[i].Line < raw.Entities[j].Line
	})
	return raw, nil
}

func (e *SchemaExtractor) Validate(raw RawData) bool {
	_, ok := raw.(*rawSchemas)
	return ok
}

func (e *SchemaExtractor) SourceCount(raw RawData) int {
	r, ok := raw.(*rawSchemas)
	if !ok {
		return 0
	}
	return len(r.Files)
}

func (e *SchemaExtractor) Transform(raw RawData) (*graph.ExtractionResult, error) {
	r, ok := raw.(*rawSchemas)
	if !ok {
		return nil, errWrongRawType("schema")
	}

	res := &graph.ExtractionResult{}
	createdAt := e.now()

	known := make(map[string]string) // entity name -> node id
	for _, ent := range r.Entities {
		fieldNames := make([]string, 0, len(ent.Fields))
		for _, f := range ent.Fields {
			fieldNames = append(fieldNames, f.Name)
		}

		entID := graph.NodeID(graph.NodeTypeSchemaEntity, ent.File+"#"+ent.Name)
		known[ent.Name] = entID
		res.AddNode(graph.Node{
			ID:   entID,
			Type: graph.NodeTypeSchemaEntity,
			Name: ent.Name,
			Properties: map[string]any{
				"file_path":   ent.File,
				"line":        ent.Line,
				"kind":        ent.Kind,
				"fields":      strings.Join(fieldNames, ","),
				"field_count": len(ent.Fields),
			},
			Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: ent.File},
		})

		if ent.Table != "" {
			tableID := graph.NodeID(graph.NodeTypeDatabaseTable, ent.Table)
			res.AddNode(graph.Node{
				ID:   tableID,
				Type: graph.NodeTypeDatabaseTable,
				Name: ent.Table,
				Properties: map[string]any{
					"file_path": ent.File,
				},
				Metadata: graph.Metadata{CreatedAt: createdAt, SourceFile: ent.File},
			})
			res.AddRelationship(graph.Relationship{
				ID:       graph.RelationshipID(graph.RelImplements, entID, tableID),
				Type:     graph.RelImplements,
				Source:   entID,
				Target:   tableID,
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	// Relation fields become REFERENCES edges once both ends are known.
	for _, ent := range r.Entities {
		srcID := known[ent.Name]
		for _, f := range ent.Fields {
			if f.Relation == "" {
				continue
			}
			tgtID, ok := known[f.Relation]
			if !ok || tgtID == srcID {
				continue
			}
			res.AddRelationship(graph.Relationship{
				ID:     graph.RelationshipID(graph.RelReferences, srcID, tgtID),
				Type:   graph.RelReferences,
				Source: srcID,
				Target: tgtID,
				Properties: map[string]any{
					"field": f.Name,
				},
				Metadata: graph.Metadata{CreatedAt: createdAt},
			})
		}
	}

	return res, nil
}

var (
	prismaModelRe = regexp.MustCompile(`^\s*model\s+(\w+)\s*\{`)
	prismaMapRe   = regexp.MustCompile(`@@map\(\s*"([^"]+)"\s*\)`)
	prismaFieldRe = regexp.MustCompile(`^\s*(\w+)\s+(\w+)(\[\])?(\?)?`)

	sqlCreateRe = regexp.MustCompile(`(?i)^\s*create\s+table\s+(?:if\s+not\s+exists\s+)?[` + "`" + `"']?(\w+)[` + "`" + `"']?`)
	sqlFKRe     = regexp.MustCompile(`(?i)references\s+[` + "`" + `"']?(\w+)[` + "`" + `"']?`)
	sqlColRe    = regexp.MustCompile(`^\s*[` + "`" + `"']?(\w+)[` + "`" + `"']?\s+(\w+)`)
)

var sqlKeywords = map[string]bool{
	"primary": true, "foreign": true, "constraint": true, "unique": true,
	"key": true, "index": true, "check": true,
}

// parsePrismaSchema is a line scanner over Prisma model blocks. Relation
// fields are recognized by their type naming another model; the second
// pass in Transform resolves them.
func parsePrismaSchema(rel string, data []byte) []schemaEntity {
	var entities []schemaEntity

	modelNames := make(map[string]bool)
	for _, m := range prismaModelRe.FindAllSubmatch(data, -1) {
		modelNames[string(m[1])] = true
	}

	var current *schemaEntity
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := prismaModelRe.FindStringSubmatch(line); m != nil {
			entities = append(entities, schemaEntity{
				Name: m[1],
				File: rel,
				Line: lineNo,
				Kind: "prisma",
			})
			current = &entities[len(entities)-1]
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "}") {
			current = nil
			continue
		}
		if m := prismaMapRe.FindStringSubmatch(line); m != nil {
			current.Table = m[1]
			continue
		}
		if m := prismaFieldRe.FindStringSubmatch(line); m != nil {
			field := schemaField{Name: m[1], Type: m[2]}
			if modelNames[field.Type] {
				field.Relation = field.Type
			}
			current.Fields = append(current.Fields, field)
		}
	}

	return entities
}

// parseSQLSchema recognizes CREATE TABLE blocks and their column and
// foreign key lines.
func parseSQLSchema(rel string, data []byte) []schemaEntity {
	var entities []schemaEntity

	var current *schemaEntity
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := sqlCreateRe.FindStringSubmatch(line); m != nil {
			entities = append(entities, schemaEntity{
				Name:  m[1],
				Table: m[1],
				File:  rel,
				Line:  lineNo,
				Kind:  "sql",
			})
			current = &entities[len(entities)-1]
			continue
		}
		if current == nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ")") {
			current = nil
			continue
		}
		if m := sqlFKRe.FindStringSubmatch(line); m != nil {
			current.Fields = append(current.Fields, schemaField{
				Name:     "fk_" + m[1],
				Type:     "reference",
				Relation: m[1],
			})
			continue
		}
		if m := sqlColRe.FindStringSubmatch(line); m != nil && !sqlKeywords[strings.ToLower(m[1])] {
			current.Fields = append(current.Fields, schemaField{Name: m[1], Type: strings.ToLower(m[2])})
		}
	}

	return entities
}
