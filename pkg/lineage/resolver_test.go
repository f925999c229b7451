package lineage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/db/mock"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils/cmp"
)

func TestResolveContext(t *testing.T) {
	type when struct {
		runId    string
		contexts []domain.Context
		err      error
	}
	type then struct {
		context domain.Context
		err     error
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			store := mock.NewMetadataInterface()
			store.Impl.GetContextsByType = func(ctx context.Context, typeName string) ([]domain.Context, error) {
				return when.contexts, when.err
			}

			actual, err := lineage.ResolveContext(context.Background(), store, when.runId, "run")
			if !errors.Is(err, then.err) {
				t.Fatalf("unexpected error: (actual, expected) = (%v, %v)", err, then.err)
			}
			if !actual.Equal(then.context) {
				t.Errorf("not match:\n- actual   : %+v\n- expected : %+v", actual, then.context)
			}
			if !cmp.SliceEq(store.Calls.GetContextsByType, []string{"run"}) {
				t.Errorf("unexpected calls: %v", store.Calls.GetContextsByType)
			}
		}
	}

	t.Run("when a context has the run name, it is returned", theory(
		when{
			runId: "run-b",
			contexts: []domain.Context{
				{Id: 1, Name: "run-a", TypeId: 10},
				{Id: 2, Name: "run-b", TypeId: 10},
				{Id: 3, Name: "run-c", TypeId: 10},
			},
		},
		then{context: domain.Context{Id: 2, Name: "run-b", TypeId: 10}},
	))

	t.Run("when no contexts have the run name, it fails with Missing", theory(
		when{
			runId: "run-x",
			contexts: []domain.Context{
				{Id: 1, Name: "run-a", TypeId: 10},
			},
		},
		then{err: kerr.ErrMissing},
	))

	t.Run("when there are no contexts at all, it fails with Missing", theory(
		when{runId: "run-a", contexts: []domain.Context{}},
		then{err: kerr.ErrMissing},
	))

	t.Run("when contexts share the run name, it fails with TooMuch instead of picking the first", theory(
		when{
			runId: "run-a",
			contexts: []domain.Context{
				{Id: 1, Name: "run-a", TypeId: 10},
				{Id: 2, Name: "run-a", TypeId: 10},
			},
		},
		then{err: kerr.ErrTooMuch},
	))

	storeErr := errors.New("fake error")
	t.Run("when the store fails, the error is returned", theory(
		when{runId: "run-a", err: storeErr},
		then{err: storeErr},
	))
}

func TestResolveContexts(t *testing.T) {
	store := mock.NewMetadataInterface()
	store.Impl.GetContextsByType = func(ctx context.Context, typeName string) ([]domain.Context, error) {
		return []domain.Context{
			{Id: 1, Name: "run-a", TypeId: 10},
			{Id: 2, Name: "run-b", TypeId: 10},
			{Id: 3, Name: "run-c", TypeId: 10},
			{Id: 4, Name: "run-d", TypeId: 10},
			{Id: 5, Name: "run-d", TypeId: 10},
		}, nil
	}

	t.Run("it resolves contexts in the order of runs, skipping unknown runs", func(t *testing.T) {
		actual, err := lineage.ResolveContexts(
			context.Background(), store, []string{"run-c", "run-x", "run-a"}, "run",
		)
		if err != nil {
			t.Fatal(err)
		}
		expected := []domain.Context{
			{Id: 3, Name: "run-c", TypeId: 10},
			{Id: 1, Name: "run-a", TypeId: 10},
		}
		if !cmp.SliceEqWith(actual, expected, domain.Context.Equal) {
			t.Errorf("not match:\n- actual   : %+v\n- expected : %+v", actual, expected)
		}
	})

	t.Run("it fails with TooMuch when a run has contexts more than one", func(t *testing.T) {
		_, err := lineage.ResolveContexts(
			context.Background(), store, []string{"run-a", "run-d"}, "run",
		)
		if !errors.Is(err, kerr.ErrTooMuch) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
