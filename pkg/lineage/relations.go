package lineage

import (
	"context"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"golang.org/x/sync/errgroup"
)

// FetchRunRelations reads Artifacts, Executions and Events recorded under the Context.
//
// Artifacts and Executions are fetched concurrently.
// Then Events of the Executions are fetched in a single call.
// If there are no Executions, Events are not queried.
//
// Returns
//
// - domain.RunRelationalBundle: records of the run. `Run` is the name of the Context.
//
// - error: *RelationFetchError, when any of calls fails.
// In this case, the bundle is empty.
func FetchRunRelations(ctx context.Context, store kdb.MetadataInterface, c domain.Context) (domain.RunRelationalBundle, error) {
	var artifacts []domain.Artifact
	var executions []domain.Execution

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a, err := store.GetArtifactsByContext(gctx, c.Id)
		if err != nil {
			return &RelationFetchError{ContextId: c.Id, Call: CallArtifacts, Err: err}
		}
		artifacts = a
		return nil
	})
	eg.Go(func() error {
		e, err := store.GetExecutionsByContext(gctx, c.Id)
		if err != nil {
			return &RelationFetchError{ContextId: c.Id, Call: CallExecutions, Err: err}
		}
		executions = e
		return nil
	})
	if err := eg.Wait(); err != nil {
		return domain.RunRelationalBundle{}, err
	}

	events := []domain.Event{}
	if len(executions) != 0 {
		ids := make([]int64, len(executions))
		for i, e := range executions {
			ids[i] = e.Id
		}
		ev, err := store.GetEventsByExecutionIds(ctx, ids)
		if err != nil {
			return domain.RunRelationalBundle{}, &RelationFetchError{ContextId: c.Id, Call: CallEvents, Err: err}
		}
		events = ev
	}

	if artifacts == nil {
		artifacts = []domain.Artifact{}
	}
	if executions == nil {
		executions = []domain.Execution{}
	}

	return domain.RunRelationalBundle{
		Run:        c.Name,
		Executions: executions,
		Artifacts:  artifacts,
		Events:     events,
	}, nil
}
