package lineage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TypeGetter reads a type from the store.
type TypeGetter func(ctx context.Context, typeId int64) (domain.Type, error)

// TypeNameResolver resolves type ids into type names, and remembers them.
//
// Types are assumed to be immutable while the resolver lives,
// so names are never expired. Failures are not remembered.
//
// Concurrent requests for the same unknown type id are coalesced into one store call.
type TypeNameResolver struct {
	get TypeGetter

	mu    sync.RWMutex
	names map[int64]string

	flight singleflight.Group
}

func NewTypeNameResolver(get TypeGetter) *TypeNameResolver {
	return &TypeNameResolver{get: get, names: map[int64]string{}}
}

// ArtifactTypeNames creates a resolver for Artifact types.
func ArtifactTypeNames(store kdb.MetadataInterface) *TypeNameResolver {
	return NewTypeNameResolver(store.GetArtifactType)
}

// ContextTypeNames creates a resolver for Context types.
func ContextTypeNames(store kdb.MetadataInterface) *TypeNameResolver {
	return NewTypeNameResolver(store.GetContextType)
}

// ExecutionTypeNames creates a resolver for Execution types.
func ExecutionTypeNames(store kdb.MetadataInterface) *TypeNameResolver {
	return NewTypeNameResolver(store.GetExecutionType)
}

// Lookup returns the name of type only when it has been resolved.
//
// This does not access the store.
func (r *TypeNameResolver) Lookup(typeId int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[typeId]
	return name, ok
}

// ResolveTypeName returns the name of type.
//
// When the type id is resolved first time, it queries the store.
// Callers waiting for the same type id share the query.
// Canceling ctx of a caller does not cancel the query shared with others,
// but the query keeps the deadline of ctx which starts it.
// When the query runs out of that deadline, the others query again.
//
// Returns
//
// - string: type name.
//
// - error: the error from the store (errors.Missing, if the type is not found),
// or ctx.Err() when ctx is done before the query completes.
func (r *TypeNameResolver) ResolveTypeName(ctx context.Context, typeId int64) (string, error) {
	if name, ok := r.Lookup(typeId); ok {
		return name, nil
	}

	key := strconv.FormatInt(typeId, 10)
	for {
		ch := r.flight.DoChan(key, func() (any, error) {
			// it can be resolved by a flight just landed.
			if name, ok := r.Lookup(typeId); ok {
				return name, nil
			}

			fctx, cancel := detach(ctx)
			defer cancel()
			t, err := r.get(fctx, typeId)
			if err != nil {
				if fctx.Err() != nil {
					return "", &expiredFlight{err: err}
				}
				return "", err
			}

			r.mu.Lock()
			defer r.mu.Unlock()
			r.names[typeId] = t.Name
			return t.Name, nil
		})

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(string), nil
			}
			expired := new(expiredFlight)
			if !errors.As(res.Err, &expired) {
				return "", res.Err
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
				return "", context.DeadlineExceeded
			}
		}
	}
}

// detach returns a context which is not canceled with ctx, but has the same deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	d := context.WithoutCancel(ctx)
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(d, dl)
	}
	return d, func() {}
}

// expiredFlight is an error of a shared query which has run out of its deadline.
type expiredFlight struct {
	err error
}

func (e *expiredFlight) Error() string {
	return e.err.Error()
}

func (e *expiredFlight) Unwrap() error {
	return e.err
}

// ResolveAll resolves names of types concurrently.
//
// Returns
//
// - map[int64]string: type id -> type name.
//
// - error: the first error caused by ResolveTypeName.
func (r *TypeNameResolver) ResolveAll(ctx context.Context, typeIds []int64) (map[int64]string, error) {
	mu := sync.Mutex{}
	names := make(map[int64]string, len(typeIds))

	eg, gctx := errgroup.WithContext(ctx)
	for _, id := range typeIds {
		eg.Go(func() error {
			name, err := r.ResolveTypeName(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			names[id] = name
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
