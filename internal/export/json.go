// Package export writes extraction results to files or the console.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"codegraph/internal/graph"
)

// WriteJSON writes the extraction result as two pretty-printed files,
// nodes.json and relationships.json, into the directory of path. When
// path names a directory the default file names are used inside it.
func WriteJSON(result *graph.ExtractionResult, path string) (nodesFile, relsFile string, err error) {
	dir := path
	if info, statErr := os.Stat(path); statErr != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	nodesFile = filepath.Join(dir, "nodes.json")
	relsFile = filepath.Join(dir, "relationships.json")

	if err := writeJSONFile(nodesFile, result.Nodes); err != nil {
		return "", "", err
	}
	if err := writeJSONFile(relsFile, result.Relationships); err != nil {
		return "", "", err
	}
	return nodesFile, relsFile, nil
}

func writeJSONFile(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
