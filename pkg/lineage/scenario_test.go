package lineage_test

import (
	"context"
	"sync"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/db/mock"
)

// records of runs "run-a" and "run-b".
//
// run-a has 2 Executions, 3 Artifacts and 2 Events. run-b has nothing.
var (
	contextRunA = domain.Context{Id: 1, Name: "run-a", TypeId: 10}
	contextRunB = domain.Context{Id: 2, Name: "run-b", TypeId: 10}

	executionsRunA = []domain.Execution{
		{Id: 101, TypeId: 20, State: domain.ExecutionComplete},
		{Id: 102, TypeId: 21, State: domain.ExecutionRunning},
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
	}
)

// scenarioStore returns a mock store serving records of the scenario.
//
// It is safe to be used from multiple goroutines.
func scenarioStore() *mock.MetadataInterface {
	artifacts := map[int64][]domain.Artifact{1: artifactsRunA, 2: {}}
	executions := map[int64][]domain.Execution{1: executionsRunA, 2: {}}
	events := map[int64][]domain.Event{}
	for _, ev := range eventsRunA {
		events[ev.ExecutionId] = append(events[ev.ExecutionId], ev)
	}
	types := map[int64]string{30: "system.Dataset", 31: "system.Model", 32: domain.MetricsArtifactType}

	store := mock.NewMetadataInterface()
	store.Impl.GetContextsByType = func(ctx context.Context, typeName string) ([]domain.Context, error) {
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
			ret = append(ret, events[id]...)
		}
		return ret, nil
	}
	store.Impl.GetArtifactType = func(ctx context.Context, typeId int64) (domain.Type, error) {
		name, ok := types[typeId]
		if !ok {
			return domain.Type{}, kerr.Missing{Table: "Type", Identity: "artifact type"}
		}
		return domain.Type{Id: typeId, Name: name, Kind: domain.ArtifactTypeKind}, nil
	}
	return store
}

// counter counts calls from goroutines.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += 1
}

func (c *counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
