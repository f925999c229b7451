package lineage

import (
	"context"
	"sync"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
)

// AggregateRuns fetches relations of runs concurrently.
//
// Args
//
// - context.Context
//
// - kdb.MetadataInterface
//
// - []string: run identifiers.
//
// - []domain.Context: resolved Contexts of runs. Contexts are matched with runs by their name.
// (see ResolveContext and ResolveContexts)
//
// Returns
//
// - []domain.RunRelationalBundle: bundles in the order of runs.
//
// - error: *AggregationError for the first failed run.
// When a run has no Context, it wraps *NoContextError and no store calls are issued.
// Otherwise, it wraps the error from FetchRunRelations.
//
// It returns as soon as a run fails, without waiting for other runs.
// Calls for other runs in flight are canceled and their results are discarded.
func AggregateRuns(
	ctx context.Context, store kdb.MetadataInterface, runs []string, contexts []domain.Context,
) ([]domain.RunRelationalBundle, error) {
	targets, err := locateContexts(runs, contexts)
	if err != nil {
		return nil, err
	}

	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		nth    int
		bundle domain.RunRelationalBundle
		err    error
	}

	// buffered, so that abandoned runs can finish without receivers.
	results := make(chan result, len(targets))
	for nth, c := range targets {
		go func() {
			b, err := FetchRunRelations(actx, store, c)
			b.Run = runs[nth]
			results <- result{nth: nth, bundle: b, err: err}
		}()
	}

	bundles := make([]domain.RunRelationalBundle, len(targets))
	for range targets {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-results:
			if r.err != nil {
				return nil, &AggregationError{Run: runs[r.nth], Err: r.err}
			}
			bundles[r.nth] = r.bundle
		}
	}
	return bundles, nil
}

// Result is an outcome of a run in AggregateRunsSettled.
type Result struct {
	Run    string
	Bundle domain.RunRelationalBundle

	// *AggregationError when the run is failed. Bundle is empty in that case.
	Err error
}

// AggregateRunsSettled fetches relations of runs concurrently, and reports each run's outcome.
//
// Unlike AggregateRuns, a failure of a run does not affect others.
// It waits for all runs.
//
// Returns
//
// - []Result: outcomes in the order of runs.
func AggregateRunsSettled(
	ctx context.Context, store kdb.MetadataInterface, runs []string, contexts []domain.Context,
) []Result {
	byName := indexContexts(contexts)

	results := make([]Result, len(runs))
	wg := sync.WaitGroup{}
	for nth, r := range runs {
		results[nth].Run = r
		c, ok := byName[r]
		if !ok {
			results[nth].Err = &AggregationError{Run: r, Err: &NoContextError{Run: r}}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := FetchRunRelations(ctx, store, c)
			if err != nil {
				results[nth].Err = &AggregationError{Run: r, Err: err}
				return
			}
			b.Run = r
			results[nth].Bundle = b
		}()
	}
	wg.Wait()
	return results
}

func indexContexts(contexts []domain.Context) map[string]domain.Context {
	byName := make(map[string]domain.Context, len(contexts))
	for _, c := range contexts {
		if _, ok := byName[c.Name]; ok {
			continue
		}
		byName[c.Name] = c
	}
	return byName
}

func locateContexts(runs []string, contexts []domain.Context) ([]domain.Context, error) {
	byName := indexContexts(contexts)
	targets := make([]domain.Context, len(runs))
	for nth, r := range runs {
		c, ok := byName[r]
		if !ok {
			return nil, &AggregationError{Run: r, Err: &NoContextError{Run: r}}
		}
		targets[nth] = c
	}
	return targets, nil
}
