package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/pipeline-lineage/cmd/lineaged/handlers"
	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/db/mock"
	"github.com/opst/pipeline-lineage/pkg/metrics"
)

// records of runs "run-a" and "run-b" in "system.PipelineRun".
var (
	contextRunA = domain.Context{Id: 1, Name: "run-a", TypeId: 10}
	contextRunB = domain.Context{Id: 2, Name: "run-b", TypeId: 10}

	executionsRunA = []domain.Execution{
		{Id: 101, TypeId: 20, State: domain.ExecutionComplete},
		{Id: 102, TypeId: 20, State: domain.ExecutionRunning},
	}
	artifactsRunA = []domain.Artifact{
		{Id: 201, TypeId: 30, Uri: "s3://bucket/dataset", Name: "dataset", State: domain.ArtifactLive},
		{Id: 202, TypeId: 31, Uri: "s3://bucket/model", Name: "model", State: domain.ArtifactLive},
		{
			Id: 203, TypeId: 32, Uri: "s3://bucket/metrics", Name: "metrics", State: domain.ArtifactLive,
			Properties: map[string]domain.Value{
				"accuracy": {Kind: domain.DoubleValue, Double: 0.875},
				"epochs":   {Kind: domain.IntValue, Int: 12},
				"note":     {Kind: domain.StringValue, String: "baseline"},
			},
		},
	}
	eventsRunA = []domain.Event{
		{ArtifactId: 201, ExecutionId: 101, Type: domain.EventInput, Path: []domain.EventStep{domain.KeyStep("dataset")}},
		{ArtifactId: 202, ExecutionId: 101, Type: domain.EventOutput, Path: []domain.EventStep{domain.KeyStep("model"), domain.IndexStep(0)}},
		{ArtifactId: 203, ExecutionId: 102, Type: domain.EventOutput},
	}

	types = map[int64]domain.Type{
		10: {Id: 10, Name: domain.PipelineRunContextType, Kind: domain.ContextTypeKind},
		20: {Id: 20, Name: "system.ContainerExecution", Kind: domain.ExecutionTypeKind},
		30: {Id: 30, Name: "system.Dataset", Kind: domain.ArtifactTypeKind},
		31: {Id: 31, Name: "system.Model", Kind: domain.ArtifactTypeKind},
		32: {Id: 32, Name: domain.MetricsArtifactType, Kind: domain.ArtifactTypeKind},
	}
)

// scenarioStore returns a mock store serving records above.
func scenarioStore() *mock.MetadataInterface {
	artifacts := map[int64][]domain.Artifact{1: artifactsRunA, 2: {}}
	executions := map[int64][]domain.Execution{1: executionsRunA, 2: {}}

	typeOf := func(kind domain.TypeKind) func(context.Context, int64) (domain.Type, error) {
		return func(ctx context.Context, typeId int64) (domain.Type, error) {
			t, ok := types[typeId]
			if !ok || t.Kind != kind {
				return domain.Type{}, kerr.Missing{Table: "Type", Identity: kind.String() + " type"}
			}
			return t, nil
		}
	}

	store := mock.NewMetadataInterface()
	store.Impl.GetContextsByType = func(ctx context.Context, typeName string) ([]domain.Context, error) {
		if typeName != domain.PipelineRunContextType {
			return []domain.Context{}, nil
		}
		return []domain.Context{contextRunA, contextRunB}, nil
	}
	store.Impl.GetArtifactsByContext = func(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
		return artifacts[contextId], nil
	}
	store.Impl.GetExecutionsByContext = func(ctx context.Context, contextId int64) ([]domain.Execution, error) {
		return executions[contextId], nil
	}
	store.Impl.GetEventsByExecutionIds = func(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
		ret := []domain.Event{}
		for _, id := range executionIds {
			for _, ev := range eventsRunA {
				if ev.ExecutionId == id {
					ret = append(ret, ev)
				}
			}
		}
		return ret, nil
	}
	store.Impl.GetArtifactsById = func(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
		ret := []domain.Artifact{}
		for _, id := range artifactIds {
			for _, a := range artifactsRunA {
				if a.Id == id {
					ret = append(ret, a)
				}
			}
		}
		return ret, nil
	}
	store.Impl.GetArtifactType = typeOf(domain.ArtifactTypeKind)
	store.Impl.GetContextType = typeOf(domain.ContextTypeKind)
	store.Impl.GetExecutionType = typeOf(domain.ExecutionTypeKind)
	store.Impl.FindExecutions = func(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
		size := kdb.NormalizePageSize(query.Size)
		after := int64(0)
		if query.Token != "" {
			a, err := kdb.DecodePageToken(query.Token, size)
			if err != nil {
				return domain.Page[domain.Execution]{}, err
			}
			after = a
		}

		page := domain.Page[domain.Execution]{Items: []domain.Execution{}}
		for _, ex := range executionsRunA {
			if ex.Id <= after {
				continue
			}
			if len(page.Items) == size {
				page.NextToken = kdb.EncodePageToken(page.Items[size-1].Id, size)
				break
			}
			page.Items = append(page.Items, ex)
		}
		return page, nil
	}
	return store
}

// newServer returns echo with routes of lineaged, set up like main.
func newServer(store kdb.MetadataInterface, m *metrics.StoreMetrics) *echo.Echo {
	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())
	handlers.Register(e, store, m, domain.PipelineRunContextType)
	return e
}

// decode decodes response body as T.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	if err := json.Unmarshal(resp.Body.Bytes(), &ret); err != nil {
		t.Fatalf("response is not json: %s (%s)", err, resp.Body.String())
	}
	return ret
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) apierr.ErrorMessage {
	t.Helper()
	return decode[apierr.ErrorResponse](t, resp).Message
}
