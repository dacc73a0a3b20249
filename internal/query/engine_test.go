package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
	"codegraph/internal/store"
)

// fakeStore records queries and replays canned answers.
type fakeStore struct {
	queries []string
	params  []map[string]any
	data    *store.QueryData
	stats   *store.Stats
	errs    []error // popped per call, nil entries mean success
}

func (f *fakeStore) Query(ctx context.Context, cypher string, params map[string]any) (*store.QueryData, error) {
	f.queries = append(f.queries, cypher)
	f.params = append(f.params, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.data == nil {
		return &store.QueryData{}, nil
	}
	return f.data, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*store.Stats, error) {
	if f.stats == nil {
		return &store.Stats{}, nil
	}
	return f.stats, nil
}

func TestRuleClassification(t *testing.T) {
	tests := []struct {
		text   string
		intent Intent
	}{
		{"find function createLogger", IntentFindFunction},
		{"show me the UserService class", IntentFindClass},
		{"what calls parseConfig", IntentFindRelations},
		{"path between main and Database", IntentFindPath},
		{"how many nodes are in the graph", IntentStats},
		{"lorem ipsum dolor", IntentUnknown},
	}

	for _, tt := range tests {
		cls := ruleClassify(tt.text)
		assert.Equal(t, tt.intent, cls.Intent, "text: %s", tt.text)
		if tt.intent == IntentUnknown {
			assert.LessOrEqual(t, cls.Confidence, 0.5)
		} else {
			assert.GreaterOrEqual(t, cls.Confidence, 0.7)
		}
	}
}

func TestRuleClassificationIsDeterministic(t *testing.T) {
	first := ruleClassify("find function createLogger")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ruleClassify("find function createLogger"))
	}
}

func TestEntityExtractionPriorityAndCap(t *testing.T) {
	entities := extractEntities(`where is "exact name" used by parseConfig`)
	require.NotEmpty(t, entities)
	assert.Equal(t, "exact name", entities[0], "quoted strings come first")
	assert.Contains(t, entities, "parseConfig")

	long := "alpha bravo charlie delta echoes foxtrot golfing hotels indigo juliett"
	assert.LessOrEqual(t, len(extractEntities(long)), maxEntities)
}

func TestGeneratedQueriesAlwaysCarryLimit(t *testing.T) {
	cypher, _ := buildNodeSearch([]string{"foo"}, Options{Limit: 7})
	assert.Contains(t, cypher, "LIMIT 7")

	cypher, _ = buildNodeSearch(nil, Options{})
	assert.Contains(t, cypher, fmt.Sprintf("LIMIT %d", defaultLimit))

	cypher, _ = buildRelations("foo", Options{Depth: 99})
	assert.Contains(t, cypher, fmt.Sprintf("[*1..%d]", maxDepth))
	assert.Contains(t, cypher, "LIMIT")

	cypher, _ = buildShortestPath("a", "b", Options{})
	assert.Contains(t, cypher, "shortestPath")
	assert.Contains(t, cypher, "LIMIT")
}

func TestRankingTieBreak(t *testing.T) {
	nodes := []graph.Node{
		{Name: "OtherFunction"},
		{Name: "TestFunction"},
		{Name: "test"},
	}

	ranked := rankNodes(nodes, []string{"test"})

	assert.Equal(t, "test", ranked[0].Name, "exact match first")
	assert.Equal(t, "TestFunction", ranked[1].Name, "prefix match beats substring")
	assert.Equal(t, "OtherFunction", ranked[2].Name)

	score, ok := ranked[0].Properties["relevance_score"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, score, exactBonus)
}

func TestRankingStableForEqualScores(t *testing.T) {
	nodes := []graph.Node{
		{Name: "handleFirst"},
		{Name: "handleSecond"},
	}
	ranked := rankNodes(nodes, []string{"handle"})
	assert.Equal(t, "handleFirst", ranked[0].Name, "declaration order breaks ties")
}

func TestAskFindFunction(t *testing.T) {
	fake := &fakeStore{
		data: &store.QueryData{Nodes: []graph.Node{
			{Name: "createLogger", Type: graph.NodeTypeFunction},
		}},
	}
	engine := NewEngine(fake)

	result, err := engine.Ask(context.Background(), "find function createLogger", Options{})
	require.NoError(t, err)

	assert.Equal(t, IntentFindFunction, result.Intent)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
	require.Len(t, fake.params, 1)
	assert.Equal(t, "createlogger", fake.params[0]["term0"])
	assert.Equal(t, "Function", fake.params[0]["nodeType"])
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, "createLogger", result.Nodes[0].Name)
}

func TestAskUnknownNeverErrors(t *testing.T) {
	engine := NewEngine(&fakeStore{})

	result, err := engine.Ask(context.Background(), "???", Options{})
	require.NoError(t, err)

	assert.Equal(t, IntentUnknown, result.Intent)
	assert.LessOrEqual(t, result.Confidence, 0.5)
	assert.NotEmpty(t, result.Suggestions)
}

func TestAskPropagatesStoreFailure(t *testing.T) {
	fake := &fakeStore{errs: []error{
		&store.StoreError{Kind: store.ErrQuerySyntax, Op: "query", Err: errors.New("boom")},
	}}
	engine := NewEngine(fake)

	_, err := engine.Ask(context.Background(), "find function foo", Options{})
	require.Error(t, err, "store failure must not look like an empty result")
}

func TestConnectionErrorRetriedExactlyOnce(t *testing.T) {
	connErr := &store.StoreError{Kind: store.ErrConnection, Op: "query", Err: errors.New("gone")}

	fake := &fakeStore{
		errs: []error{connErr, nil},
		data: &store.QueryData{Nodes: []graph.Node{{Name: "foo"}}},
	}
	engine := NewEngine(fake)

	result, err := engine.Ask(context.Background(), "find function foo", Options{})
	require.NoError(t, err)
	assert.Len(t, fake.queries, 2, "one retry after the connection error")
	assert.Len(t, result.Nodes, 1)

	fake = &fakeStore{errs: []error{connErr, connErr}}
	engine = NewEngine(fake)
	_, err = engine.Ask(context.Background(), "find function foo", Options{})
	require.Error(t, err)
	assert.Len(t, fake.queries, 2, "a second connection error is final")
}

type slowClassifier struct{ delay time.Duration }

func (s *slowClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	select {
	case <-time.After(s.delay):
		return Classification{Intent: IntentStats, Confidence: 0.9}, nil
	case <-ctx.Done():
		return Classification{}, ctx.Err()
	}
}

func TestClassifierTimeoutFallsBackToRules(t *testing.T) {
	engine := NewEngine(&fakeStore{},
		WithClassifier(&slowClassifier{delay: time.Second}, 10*time.Millisecond))

	result, err := engine.Ask(context.Background(), "gibberish words here", Options{})
	require.NoError(t, err)
	assert.Equal(t, IntentUnknown, result.Intent, "slow classifier must not override the rule result")
}

func TestClassifierConsultedWhenRulesInconclusive(t *testing.T) {
	engine := NewEngine(&fakeStore{stats: &store.Stats{NodeCount: 3}},
		WithClassifier(&slowClassifier{delay: 0}, time.Second))

	result, err := engine.Ask(context.Background(), "gibberish words here", Options{})
	require.NoError(t, err)
	assert.Equal(t, IntentStats, result.Intent)
	require.NotNil(t, result.Stats)
	assert.Equal(t, int64(3), result.Stats.NodeCount)
}

func TestShortestPathNeedsTwoTerms(t *testing.T) {
	engine := NewEngine(&fakeStore{})

	result, err := engine.Ask(context.Background(), "path between alpha and omega", Options{})
	require.NoError(t, err)
	assert.Equal(t, IntentFindPath, result.Intent)

	fake := &fakeStore{}
	engine = NewEngine(fake)
	res, err := engine.ShortestPath(context.Background(), "alpha", "omega", Options{})
	require.NoError(t, err)
	require.Len(t, fake.queries, 1)
	assert.True(t, strings.Contains(fake.queries[0], "shortestPath"))
	assert.Equal(t, "alpha", fake.params[0]["from"])
	assert.Equal(t, "omega", fake.params[0]["to"])
	assert.NotEmpty(t, res.Explanation)
}
