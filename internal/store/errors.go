package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrorKind classifies store failures so callers can decide between
// retry and fail-fast.
type ErrorKind string

const (
	ErrConnection  ErrorKind = "connection"
	ErrQuerySyntax ErrorKind = "query_syntax"
	ErrTimeout     ErrorKind = "timeout"
	ErrInternal    ErrorKind = "internal"
)

// StoreError wraps an underlying graph database error with a kind and
// the operation that produced it.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// classify wraps a driver error into a StoreError with the best-guess
// kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := ErrInternal
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrTimeout
	case isSyntaxError(err):
		kind = ErrQuerySyntax
	case isConnectivityError(err):
		kind = ErrConnection
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}

func isSyntaxError(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.Contains(neoErr.Code, "SyntaxError") ||
			strings.Contains(neoErr.Code, "Statement")
	}
	return false
}

func isConnectivityError(err error) bool {
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.HasPrefix(neoErr.Code, "Neo.TransientError")
	}
	return false
}

// IsKind reports whether err is a StoreError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Kind == kind
}

// IsConnectionError reports whether err is a transient connection
// failure worth retrying.
func IsConnectionError(err error) bool {
	return IsKind(err, ErrConnection)
}
