package db

import (
	"context"

	"github.com/opst/pipeline-lineage/pkg/domain"
)

// MetadataInterface is a read-only query interface to a metadata store.
//
// Records returned from this interface have been validated.
// Implementations should reject malformed records with an error wrapping errors.ErrInvalidRecord.
type MetadataInterface interface {
	// get Contexts of the type.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the Context type.
	//
	// Returns
	//
	// - []domain.Context: Contexts of the type, ordered by id.
	// If the type does not exist, it is empty.
	//
	// - error
	GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error)

	// get Artifacts attributed to the Context.
	GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error)

	// get Executions associated with the Context.
	GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error)

	// get Events of the Executions, in a single query.
	//
	// Args
	//
	// - context.Context
	//
	// - []int64: execution ids.
	//
	// Returns
	//
	// - []domain.Event: Events ordered by (execution id, artifact id).
	//
	// - error
	GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error)

	// get Artifacts by ids.
	//
	// Unknown ids are ignored.
	GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error)

	// get Artifact type.
	//
	// Returns
	//
	// - domain.Type
	//
	// - error: errors.Missing when the type is not found.
	GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error)

	// get Context type.
	//
	// Returns
	//
	// - domain.Type
	//
	// - error: errors.Missing when the type is not found.
	GetContextType(ctx context.Context, typeId int64) (domain.Type, error)

	// get Execution type.
	//
	// Returns
	//
	// - domain.Type
	//
	// - error: errors.Missing when the type is not found.
	GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error)

	// list Executions page by page.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.PageQuery: page token and size.
	// Tokens are issued for a page size. Tokens used with another page size are rejected.
	//
	// Returns
	//
	// - domain.Page[domain.Execution]: Executions ordered by id.
	//
	// - error: ErrInvalidPageToken when the token is broken or issued for another page size.
	FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error)
}
