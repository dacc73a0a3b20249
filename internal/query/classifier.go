package query

import (
	"context"
	"time"
)

// defaultClassifierTimeout bounds the optional AI classification call;
// the rule-based result is always available as the fallback.
const defaultClassifierTimeout = 1500 * time.Millisecond

// Classifier is an optional strategy consulted when rule-based intent
// matching is inconclusive. Implementations must honor the context.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// classifyWithFallback invokes the injected classifier under a hard
// timeout. Any error, timeout or nonsense answer falls back to the rule
// result; classification never fails the query.
func (e *Engine) classifyWithFallback(ctx context.Context, text string, rule Classification) Classification {
	cctx, cancel := context.WithTimeout(ctx, e.classifierTimeout)
	defer cancel()

	type outcome struct {
		cls Classification
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		cls, err := e.classifier.Classify(cctx, text)
		done <- outcome{cls, err}
	}()

	select {
	case <-cctx.Done():
		return rule
	case result := <-done:
		if result.err != nil || !validIntent(result.cls.Intent) {
			return rule
		}
		return result.cls
	}
}

func validIntent(intent Intent) bool {
	switch intent {
	case IntentFindFunction, IntentFindClass, IntentFindRelations,
		IntentFindPath, IntentStats, IntentUnknown:
		return intent != IntentUnknown
	default:
		return false
	}
}
