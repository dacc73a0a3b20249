package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// NodeID derives a deterministic node identifier from the node type and a
// qualifying key (package name, file path, fully qualified symbol name).
// The same (type, qualifier) pair always yields the same id, across runs
// and across machines; different types never collide because the type is
// part of the key.
func NodeID(t NodeType, qualifier string) string {
	q := normalizeQualifier(qualifier)
	return strings.ToLower(string(t)) + ":" + q + ":" + shortHash(string(t)+"\x00"+q)
}

// RelationshipID derives a deterministic relationship identifier from the
// edge type and the ids of its endpoints. A given directed (type, source,
// target) triple identifies exactly one logical edge.
func RelationshipID(t RelType, sourceID, targetID string) string {
	return "rel:" + strings.ToLower(string(t)) + ":" + shortHash(string(t)+"\x00"+sourceID+"\x00"+targetID)
}

// normalizeQualifier makes path-based qualifiers platform independent and
// strips characters that would make ids awkward in query output.
func normalizeQualifier(q string) string {
	q = filepath.ToSlash(q)
	q = strings.TrimPrefix(q, "./")
	q = strings.ReplaceAll(q, " ", "_")
	return q
}

func shortHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:6])
}
