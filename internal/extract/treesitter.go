package extract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// declQueries captures named declarations per language. The @def capture
// is the whole declaration, @name its identifier.
var declQueries = map[string]string{
	"javascript": `
		(function_declaration name: (identifier) @name) @def
		(class_declaration name: (identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
	`,
	"typescript": `
		(function_declaration name: (identifier) @name) @def
		(class_declaration name: (type_identifier) @name) @def
		(method_definition name: (property_identifier) @name) @def
		(interface_declaration name: (type_identifier) @name) @def
	`,
	"python": `
		(function_definition name: (identifier) @name) @def
		(class_definition name: (identifier) @name) @def
	`,
}

// declKinds maps tree-sitter node kinds onto the extractor's declaration
// kinds.
var declKinds = map[string]string{
	"function_declaration":  "function",
	"function_definition":   "function",
	"method_definition":     "method",
	"class_declaration":     "class",
	"class_definition":      "class",
	"interface_declaration": "interface",
}

func languageFor(lang string) (*sitter.Language, error) {
	switch lang {
	case "javascript":
		return sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case "typescript":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case "tsx":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	case "python":
		return sitter.NewLanguage(tree_sitter_python.Language()), nil
	}
	return nil, fmt.Errorf("no grammar for language %q", lang)
}

// languageForExt maps a file extension to (language, query key).
func languageForExt(ext string) (string, string, bool) {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript", "javascript", true
	case ".ts":
		return "typescript", "typescript", true
	case ".tsx":
		return "tsx", "typescript", true
	case ".py":
		return "python", "python", true
	}
	return "", "", false
}

// parseDeclarations runs the language's declaration query over one file
// and returns its declarations in source order.
func parseDeclarations(rel, lang, queryKey string, source []byte) ([]sourceDecl, error) {
	language, err := languageFor(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", rel)
	}
	defer tree.Close()

	query, qerr := sitter.NewQuery(language, declQueries[queryKey])
	if qerr != nil {
		return nil, fmt.Errorf("compile declaration query for %s: %w", lang, qerr)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()

	var decls []sourceDecl
	matches := cursor.Matches(query, tree.RootNode(), source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var name string
		var def *sitter.Node
		for _, cap := range match.Captures {
			capName := ""
			if int(cap.Index) < len(captureNames) {
				capName = captureNames[cap.Index]
			}
			switch capName {
			case "name":
				name = cap.Node.Utf8Text(source)
			case "def":
				node := cap.Node
				def = &node
			}
		}
		if name == "" || def == nil {
			continue
		}

		kind := declKinds[def.Kind()]
		if kind == "" {
			kind = "function"
		}

		qualifier := rel + ":" + name
		if parent := enclosingClassName(def, source); parent != "" && kind == "method" {
			qualifier = rel + ":" + parent + "." + name
		}

		decls = append(decls, sourceDecl{
			Language:  lang,
			File:      rel,
			Name:      name,
			Qualifier: qualifier,
			Kind:      kind,
			Line:      int(def.StartPosition().Row) + 1,
			Signature: declSignature(def, source),
			Exported:  !strings.HasPrefix(name, "_"),
		})
	}

	return decls, nil
}

// enclosingClassName walks up from a declaration to the class containing
// it, if any.
func enclosingClassName(node *sitter.Node, source []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		kind := parent.Kind()
		if kind == "class_declaration" || kind == "class_definition" {
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
				return nameNode.Utf8Text(source)
			}
			return ""
		}
	}
	return ""
}

// declSignature takes the first line of the declaration text, capped so
// minified sources cannot produce absurd signatures.
func declSignature(node *sitter.Node, source []byte) string {
	text := node.Utf8Text(source)
	if idx := strings.IndexAny(text, "\n{:"); idx > 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > 160 {
		text = text[:160]
	}
	return text
}
