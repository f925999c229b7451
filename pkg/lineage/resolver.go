package lineage

import (
	"context"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
)

// ResolveContext finds the Context of the run.
//
// Args
//
// - context.Context
//
// - kdb.MetadataInterface
//
// - string: run identifier. This is compared with names of Contexts.
//
// - string: Context type name of runs.
//
// Returns
//
// - domain.Context: the only one Context named as the run.
//
// - error: errors.Missing when no Context has the name,
// errors.TooMuch when more than one Context have the name.
// Other errors are returned from the store as they are.
func ResolveContext(ctx context.Context, store kdb.MetadataInterface, runId string, contextType string) (domain.Context, error) {
	contexts, err := store.GetContextsByType(ctx, contextType)
	if err != nil {
		return domain.Context{}, err
	}

	found := []domain.Context{}
	for _, c := range contexts {
		if c.Name == runId {
			found = append(found, c)
		}
	}

	switch len(found) {
	case 0:
		return domain.Context{}, kerr.Missing{Table: contextType, Identity: runId}
	case 1:
		return found[0], nil
	default:
		return domain.Context{}, kerr.TooMuch{
			Table: contextType, Identity: runId, Expected: 1, Actual: len(found),
		}
	}
}

// ResolveContexts resolves Contexts for each runs.
//
// Contexts of the type are queried once.
// Runs which have no Context are just skipped, and runs having more than one Context cause errors.TooMuch.
//
// The result can be passed to AggregateRuns.
func ResolveContexts(ctx context.Context, store kdb.MetadataInterface, runIds []string, contextType string) ([]domain.Context, error) {
	contexts, err := store.GetContextsByType(ctx, contextType)
	if err != nil {
		return nil, err
	}

	byName := map[string][]domain.Context{}
	for _, c := range contexts {
		byName[c.Name] = append(byName[c.Name], c)
	}

	resolved := make([]domain.Context, 0, len(runIds))
	for _, r := range runIds {
		cs := byName[r]
		switch len(cs) {
		case 0:
			continue
		case 1:
			resolved = append(resolved, cs[0])
		default:
			return nil, kerr.TooMuch{Table: contextType, Identity: r, Expected: 1, Actual: len(cs)}
		}
	}
	return resolved, nil
}
