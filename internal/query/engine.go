package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codegraph/internal/graph"
	"codegraph/internal/store"
	"codegraph/pkg/logger"
)

// QueryResult is the assembled answer for one query: the recognized
// intent, the generated graph query, ranked matches and refinement
// suggestions when the engine was unsure.
type QueryResult struct {
	Intent          Intent               `json:"intent"`
	Confidence      float64              `json:"confidence"`
	Query           string               `json:"query,omitempty"`
	Nodes           []graph.Node         `json:"nodes"`
	Relationships   []graph.Relationship `json:"relationships"`
	Stats           *store.Stats         `json:"stats,omitempty"`
	Explanation     string               `json:"explanation"`
	Suggestions     []string             `json:"suggestions,omitempty"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
}

// Engine answers natural-language and structured queries against the
// graph store. It is stateless per request and safe for concurrent use.
type Engine struct {
	store             store.Service
	classifier        Classifier
	classifierTimeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClassifier injects an AI classification strategy consulted when
// rule matching is inconclusive. A timeout of zero keeps the default.
func WithClassifier(c Classifier, timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.classifier = c
		if timeout > 0 {
			e.classifierTimeout = timeout
		}
	}
}

// NewEngine creates a query engine over the given store.
func NewEngine(svc store.Service, opts ...EngineOption) *Engine {
	e := &Engine{
		store:             svc,
		classifierTimeout: defaultClassifierTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask runs the full pipeline for a natural-language question: classify
// intent, extract entities, build and execute a bounded graph query,
// rank results. A question the engine cannot make sense of still
// returns a result object with suggestions, never an error; only
// store failures are errors.
func (e *Engine) Ask(ctx context.Context, text string, opts Options) (*QueryResult, error) {
	start := time.Now()

	cls := ruleClassify(text)
	if e.classifier != nil && (cls.Intent == IntentUnknown || cls.Confidence < 0.7) {
		cls = e.classifyWithFallback(ctx, text, cls)
	}
	entities := extractEntities(text)
	logger.Debug("Classified query", "intent", cls.Intent, "confidence", cls.Confidence, "entities", entities)

	result := &QueryResult{
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
	}

	var err error
	switch cls.Intent {
	case IntentStats:
		err = e.answerStats(ctx, result)
	case IntentFindPath:
		err = e.answerPath(ctx, entities, opts, result)
	case IntentFindRelations:
		err = e.answerRelations(ctx, entities, opts, result)
	case IntentFindFunction:
		opts.NodeType = graph.NodeTypeFunction
		err = e.answerNodeSearch(ctx, entities, opts, result)
	case IntentFindClass:
		opts.NodeType = graph.NodeTypeClass
		err = e.answerNodeSearch(ctx, entities, opts, result)
	default:
		if len(entities) > 0 {
			err = e.answerNodeSearch(ctx, entities, opts, result)
		} else {
			result.Explanation = "Could not recognize what the question asks for."
		}
	}
	if err != nil {
		return nil, err
	}

	result.Nodes = rankNodes(result.Nodes, entities)
	if result.Confidence <= 0.5 || (len(result.Nodes) == 0 && result.Stats == nil) {
		result.Suggestions = buildSuggestions(result.Intent, entities)
	}
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// FindNodes searches nodes by name, optionally filtered by type.
func (e *Engine) FindNodes(ctx context.Context, search string, opts Options) (*QueryResult, error) {
	start := time.Now()
	entities := extractEntities(search)
	if len(entities) == 0 && search != "" {
		entities = []string{search}
	}

	intent := IntentFindFunction
	if opts.NodeType != "" && opts.NodeType != graph.NodeTypeFunction {
		intent = IntentFindClass
	}
	result := &QueryResult{Intent: intent, Confidence: 1}
	if err := e.answerNodeSearch(ctx, entities, opts, result); err != nil {
		return nil, err
	}
	result.Nodes = rankNodes(result.Nodes, entities)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// Relations expands the neighborhood of nodes matching the search term.
func (e *Engine) Relations(ctx context.Context, search string, opts Options) (*QueryResult, error) {
	start := time.Now()
	result := &QueryResult{Intent: IntentFindRelations, Confidence: 1}
	if err := e.answerRelations(ctx, []string{search}, opts, result); err != nil {
		return nil, err
	}
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// ShortestPath finds a connecting path between two named nodes.
func (e *Engine) ShortestPath(ctx context.Context, from, to string, opts Options) (*QueryResult, error) {
	start := time.Now()
	result := &QueryResult{Intent: IntentFindPath, Confidence: 1}
	if err := e.answerPath(ctx, []string{from, to}, opts, result); err != nil {
		return nil, err
	}
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// GraphStats reports aggregate counts for the stored graph.
func (e *Engine) GraphStats(ctx context.Context) (*store.Stats, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph stats: %w", err)
	}
	return stats, nil
}

func (e *Engine) answerStats(ctx context.Context, result *QueryResult) error {
	stats, err := e.GraphStats(ctx)
	if err != nil {
		return err
	}
	result.Stats = stats
	result.Explanation = fmt.Sprintf("The graph holds %d nodes and %d relationships.",
		stats.NodeCount, stats.RelationshipCount)
	return nil
}

func (e *Engine) answerNodeSearch(ctx context.Context, entities []string, opts Options, result *QueryResult) error {
	cypher, params := buildNodeSearch(entities, opts)
	data, err := e.runQuery(ctx, cypher, params)
	if err != nil {
		return err
	}
	result.Query = cypher
	result.Nodes = data.Nodes
	result.Relationships = data.Relationships
	result.Explanation = fmt.Sprintf("Found %d nodes matching %s.",
		len(data.Nodes), strings.Join(entities, ", "))
	return nil
}

func (e *Engine) answerRelations(ctx context.Context, entities []string, opts Options, result *QueryResult) error {
	if len(entities) == 0 {
		result.Explanation = "A relations query needs something to expand around."
		return nil
	}
	cypher, params := buildRelations(entities[0], opts)
	data, err := e.runQuery(ctx, cypher, params)
	if err != nil {
		return err
	}
	result.Query = cypher
	result.Nodes = data.Nodes
	result.Relationships = data.Relationships
	result.Explanation = fmt.Sprintf("Found %d relationships around %q.",
		len(data.Relationships), entities[0])
	return nil
}

func (e *Engine) answerPath(ctx context.Context, entities []string, opts Options, result *QueryResult) error {
	if len(entities) < 2 {
		result.Explanation = "A path query needs two endpoints."
		return nil
	}
	cypher, params := buildShortestPath(entities[0], entities[1], opts)
	data, err := e.runQuery(ctx, cypher, params)
	if err != nil {
		return err
	}
	result.Query = cypher
	result.Nodes = data.Nodes
	result.Relationships = data.Relationships
	if len(data.Relationships) == 0 {
		result.Explanation = fmt.Sprintf("No path found between %q and %q.", entities[0], entities[1])
	} else {
		result.Explanation = fmt.Sprintf("Found a path of %d hops between %q and %q.",
			len(data.Relationships), entities[0], entities[1])
	}
	return nil
}

// runQuery executes one store query, retrying exactly once on a
// transient connection error. Failures propagate; callers must be able
// to tell "no matches" from "query failed".
func (e *Engine) runQuery(ctx context.Context, cypher string, params map[string]any) (*store.QueryData, error) {
	data, err := e.store.Query(ctx, cypher, params)
	if err != nil && store.IsConnectionError(err) {
		logger.Warn("Query hit a connection error, retrying once", "error", err)
		data, err = e.store.Query(ctx, cypher, params)
	}
	if err != nil {
		return nil, fmt.Errorf("execute graph query: %w", err)
	}
	return data, nil
}

// buildSuggestions proposes refinements when confidence is low or the
// result set came back empty.
func buildSuggestions(intent Intent, entities []string) []string {
	suggestions := []string{
		`Quote exact identifiers, e.g. ask about "createLogger".`,
	}
	if len(entities) == 0 {
		suggestions = append(suggestions, "Name a function, type or file to search for.")
	}
	switch intent {
	case IntentUnknown:
		suggestions = append(suggestions,
			"Start with a verb the engine knows: find, show, count.",
			`Try "find function <name>" or "what calls <name>".`)
	case IntentFindPath:
		suggestions = append(suggestions, "Give both endpoints, e.g. \"path between A and B\".")
	case IntentFindRelations:
		suggestions = append(suggestions, "Increase --depth to expand further out.")
	}
	return suggestions
}
