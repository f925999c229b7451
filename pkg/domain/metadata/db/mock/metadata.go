package mock

import (
	"context"
	"errors"

	"github.com/opst/pipeline-lineage/pkg/domain"
	dbmock "github.com/opst/pipeline-lineage/pkg/domain/internal/db/mock"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
)

// MetadataInterface is a mock of db.MetadataInterface.
//
// It is safe to be called from multiple goroutines,
// if Impl funcs are so.
type MetadataInterface struct {
	Impl struct {
		GetContextsByType       func(ctx context.Context, typeName string) ([]domain.Context, error)
		GetArtifactsByContext   func(ctx context.Context, contextId int64) ([]domain.Artifact, error)
		GetExecutionsByContext  func(ctx context.Context, contextId int64) ([]domain.Execution, error)
		GetEventsByExecutionIds func(ctx context.Context, executionIds []int64) ([]domain.Event, error)
		GetArtifactsById        func(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error)
		GetArtifactType         func(ctx context.Context, typeId int64) (domain.Type, error)
		GetContextType          func(ctx context.Context, typeId int64) (domain.Type, error)
		GetExecutionType        func(ctx context.Context, typeId int64) (domain.Type, error)
		FindExecutions          func(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error)
	}

	Calls struct {
		GetContextsByType       dbmock.CallLog[string]
		GetArtifactsByContext   dbmock.CallLog[int64]
		GetExecutionsByContext  dbmock.CallLog[int64]
		GetEventsByExecutionIds dbmock.CallLog[[]int64]
		GetArtifactsById        dbmock.CallLog[[]int64]
		GetArtifactType         dbmock.CallLog[int64]
		GetContextType          dbmock.CallLog[int64]
		GetExecutionType        dbmock.CallLog[int64]
		FindExecutions          dbmock.CallLog[domain.PageQuery]
	}

	rec dbmock.Recorder
}

func NewMetadataInterface() *MetadataInterface {
	return &MetadataInterface{}
}

var _ kdb.MetadataInterface = &MetadataInterface{}

func (m *MetadataInterface) GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error) {
	dbmock.Record(&m.rec, &m.Calls.GetContextsByType, typeName)
	if m.Impl.GetContextsByType != nil {
		return m.Impl.GetContextsByType(ctx, typeName)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
	dbmock.Record(&m.rec, &m.Calls.GetArtifactsByContext, contextId)
	if m.Impl.GetArtifactsByContext != nil {
		return m.Impl.GetArtifactsByContext(ctx, contextId)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error) {
	dbmock.Record(&m.rec, &m.Calls.GetExecutionsByContext, contextId)
	if m.Impl.GetExecutionsByContext != nil {
		return m.Impl.GetExecutionsByContext(ctx, contextId)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
	dbmock.Record(&m.rec, &m.Calls.GetEventsByExecutionIds, executionIds)
	if m.Impl.GetEventsByExecutionIds != nil {
		return m.Impl.GetEventsByExecutionIds(ctx, executionIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
	dbmock.Record(&m.rec, &m.Calls.GetArtifactsById, artifactIds)
	if m.Impl.GetArtifactsById != nil {
		return m.Impl.GetArtifactsById(ctx, artifactIds)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error) {
	dbmock.Record(&m.rec, &m.Calls.GetArtifactType, typeId)
	if m.Impl.GetArtifactType != nil {
		return m.Impl.GetArtifactType(ctx, typeId)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetContextType(ctx context.Context, typeId int64) (domain.Type, error) {
	dbmock.Record(&m.rec, &m.Calls.GetContextType, typeId)
	if m.Impl.GetContextType != nil {
		return m.Impl.GetContextType(ctx, typeId)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error) {
	dbmock.Record(&m.rec, &m.Calls.GetExecutionType, typeId)
	if m.Impl.GetExecutionType != nil {
		return m.Impl.GetExecutionType(ctx, typeId)
	}
	panic(errors.New("it should not be called"))
}

func (m *MetadataInterface) FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
	dbmock.Record(&m.rec, &m.Calls.FindExecutions, query)
	if m.Impl.FindExecutions != nil {
		return m.Impl.FindExecutions(ctx, query)
	}
	panic(errors.New("it should not be called"))
}
