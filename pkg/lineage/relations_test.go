package lineage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opst/pipeline-lineage/pkg/domain"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils/cmp"
)

func TestFetchRunRelations(t *testing.T) {
	t.Run("it fetches artifacts, executions and events of a context", func(t *testing.T) {
		store := scenarioStore()

		actual, err := lineage.FetchRunRelations(context.Background(), store, contextRunA)
		if err != nil {
			t.Fatal(err)
		}

		expected := domain.RunRelationalBundle{
			Run:        "run-a",
			Executions: executionsRunA,
			Artifacts:  artifactsRunA,
			Events:     eventsRunA,
		}
		if !actual.Equal(expected) {
			t.Errorf("not match:\n- actual   : %+v\n- expected : %+v", actual, expected)
		}

		if !cmp.SliceEq(store.Calls.GetArtifactsByContext, []int64{1}) {
			t.Errorf("unexpected artifact calls: %v", store.Calls.GetArtifactsByContext)
		}
		if !cmp.SliceEq(store.Calls.GetExecutionsByContext, []int64{1}) {
			t.Errorf("unexpected execution calls: %v", store.Calls.GetExecutionsByContext)
		}
		if store.Calls.GetEventsByExecutionIds.Times() != 1 {
			t.Fatalf("events should be fetched in a call: %v", store.Calls.GetEventsByExecutionIds)
		}
		if !cmp.SliceContentEq(store.Calls.GetEventsByExecutionIds[0], []int64{101, 102}) {
			t.Errorf("unexpected event calls: %v", store.Calls.GetEventsByExecutionIds)
		}
	})

	t.Run("when the context has no executions, it does not query events", func(t *testing.T) {
		store := scenarioStore()

		actual, err := lineage.FetchRunRelations(context.Background(), store, contextRunB)
		if err != nil {
			t.Fatal(err)
		}

		if len(actual.Events) != 0 || actual.Events == nil {
			t.Errorf("events should be empty: %+v", actual.Events)
		}
		if len(actual.Executions) != 0 {
			t.Errorf("executions should be empty: %+v", actual.Executions)
		}
		if n := store.Calls.GetEventsByExecutionIds.Times(); n != 0 {
			t.Errorf("events are queried %d times", n)
		}
	})

	fakeErr := errors.New("fake error")
	for name, testcase := range map[string]struct {
		then lineage.Call
	}{
		"artifacts":  {then: lineage.CallArtifacts},
		"executions": {then: lineage.CallExecutions},
		"events":     {then: lineage.CallEvents},
	} {
		t.Run("when the call for "+name+" fails, it fails as a unit", func(t *testing.T) {
			store := scenarioStore()
			switch testcase.then {
			case lineage.CallArtifacts:
				store.Impl.GetArtifactsByContext = func(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
					return nil, fakeErr
				}
			case lineage.CallExecutions:
				store.Impl.GetExecutionsByContext = func(ctx context.Context, contextId int64) ([]domain.Execution, error) {
					return nil, fakeErr
				}
			case lineage.CallEvents:
				store.Impl.GetEventsByExecutionIds = func(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
					return nil, fakeErr
				}
			}

			actual, err := lineage.FetchRunRelations(context.Background(), store, contextRunA)
			if !errors.Is(err, fakeErr) {
				t.Fatalf("unexpected error: %v", err)
			}

			var rferr *lineage.RelationFetchError
			if !errors.As(err, &rferr) {
				t.Fatalf("error is not RelationFetchError: %v", err)
			}
			if rferr.Call != testcase.then || rferr.ContextId != contextRunA.Id {
				t.Errorf("unexpected error detail: %+v", rferr)
			}

			if !actual.Equal(domain.RunRelationalBundle{}) {
				t.Errorf("partial bundle is returned: %+v", actual)
			}
		})
	}
}
