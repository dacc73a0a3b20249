package query

import (
	"regexp"
	"strings"
)

// maxEntities caps how many identifiers feed query construction so a
// rambling question never produces an unbounded WHERE clause.
const maxEntities = 6

var (
	quotedRe = regexp.MustCompile("\"([^\"]+)\"|'([^']+)'|`([^`]+)`")
	camelRe  = regexp.MustCompile(`\b[a-z][a-z0-9]*[A-Z][A-Za-z0-9]*\b|\b[A-Z][a-z0-9]+[A-Z][A-Za-z0-9]*\b|\b[a-zA-Z][a-zA-Z0-9]*_[a-zA-Z0-9_]+\b`)
	wordRe   = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9]{2,}\b`)
)

// stopwords are query-language words and intent keywords that never
// name an entity in the graph.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "what": true, "which": true, "where": true, "who": true,
	"how": true, "are": true, "all": true, "any": true, "does": true,
	"show": true, "list": true, "find": true, "get": true, "give": true,
	"function": true, "functions": true, "method": true, "methods": true,
	"class": true, "classes": true, "struct": true, "structs": true,
	"interface": true, "interfaces": true, "type": true, "types": true,
	"call": true, "calls": true, "called": true, "use": true, "uses": true,
	"used": true, "depend": true, "depends": true, "dependencies": true,
	"import": true, "imports": true, "reference": true, "references": true,
	"relation": true, "relations": true, "relationship": true,
	"relationships": true, "between": true, "path": true, "paths": true,
	"connected": true, "connection": true, "stats": true, "statistics": true,
	"count": true, "many": true, "node": true, "nodes": true, "graph": true,
}

// extractEntities pulls candidate identifiers out of the query text in
// priority order: quoted exact strings, then camel/snake-case tokens,
// then remaining significant words, capped at maxEntities total.
func extractEntities(text string) []string {
	var entities []string
	seen := make(map[string]bool)

	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || len(entities) >= maxEntities {
			return
		}
		key := strings.ToLower(candidate)
		if seen[key] || stopwords[key] {
			return
		}
		seen[key] = true
		entities = append(entities, candidate)
	}

	for _, groups := range quotedRe.FindAllStringSubmatch(text, -1) {
		for _, group := range groups[1:] {
			if group != "" {
				add(group)
			}
		}
	}

	unquoted := quotedRe.ReplaceAllString(text, " ")
	for _, token := range camelRe.FindAllString(unquoted, -1) {
		add(token)
	}
	for _, word := range wordRe.FindAllString(unquoted, -1) {
		add(word)
	}
	return entities
}
