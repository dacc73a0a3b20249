package extract

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"codegraph/internal/graph"
	"codegraph/pkg/logger"
)

// CategoryReport summarizes one extractor's run for observability.
type CategoryReport struct {
	Category      string `json:"category"`
	Sources       int    `json:"sources"`
	Nodes         int    `json:"nodes"`
	Relationships int    `json:"relationships"`
	Err           error  `json:"-"`
}

// Runner executes a set of extractors concurrently and merges their
// results. A single extractor's failure is isolated: it is logged,
// surfaces as an empty result for that category, and never aborts
// sibling extractors.
type Runner struct {
	registry *Registry
	parallel int
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{
		registry: registry,
		parallel: 4,
	}
}

// Resolve expands the requested categories, treating "all" (or an empty
// list) as every registered category.
func (r *Runner) Resolve(categories []string) ([]string, error) {
	if len(categories) == 0 {
		return r.registry.Categories(), nil
	}
	var resolved []string
	for _, c := range categories {
		if c == "all" {
			return r.registry.Categories(), nil
		}
		if _, err := r.registry.Get(c); err != nil {
			return nil, err
		}
		resolved = append(resolved, c)
	}
	return resolved, nil
}

// Run executes the requested extractor categories against root and
// returns the deduplicated union of their results.
func (r *Runner) Run(ctx context.Context, root string, categories []string) (*graph.ExtractionResult, []CategoryReport, error) {
	resolved, err := r.Resolve(categories)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*graph.ExtractionResult, len(resolved))
	reports := make([]CategoryReport, len(resolved))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallel)

	for i, category := range resolved {
		i, category := i, category
		eg.Go(func() error {
			reports[i] = r.runOne(gCtx, root, category, &results[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return graph.Merge(results...), reports, nil
}

func (r *Runner) runOne(ctx context.Context, root, category string, out **graph.ExtractionResult) CategoryReport {
	report := CategoryReport{Category: category}

	ex, err := r.registry.Get(category)
	if err != nil {
		report.Err = err
		return report
	}

	raw, err := func() (raw RawData, err error) {
		// An extractor panicking on malformed input must not take the
		// run down with it.
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("extractor %s panicked: %v", category, rec)
			}
		}()
		return ex.ExtractRaw(ctx, root)
	}()
	if err != nil {
		logger.Warn("Extraction failed, continuing without category", "category", category, "error", err)
		report.Err = err
		*out = &graph.ExtractionResult{}
		return report
	}

	if !ex.Validate(raw) {
		logger.Warn("Extractor produced invalid raw data", "category", category)
		report.Err = fmt.Errorf("extractor %s produced invalid raw data", category)
		*out = &graph.ExtractionResult{}
		return report
	}
	report.Sources = ex.SourceCount(raw)

	res, err := ex.Transform(raw)
	if err != nil {
		logger.Warn("Transform failed, continuing without category", "category", category, "error", err)
		report.Err = err
		*out = &graph.ExtractionResult{}
		return report
	}

	report.Nodes = len(res.Nodes)
	report.Relationships = len(res.Relationships)
	*out = res
	return report
}
