package lineage

import (
	"fmt"

	"github.com/opst/pipeline-lineage/pkg/domain"
)

// Call identifies a store call issued while fetching relations of a run.
type Call string

const (
	CallArtifacts  Call = "artifacts"
	CallExecutions Call = "executions"
	CallEvents     Call = "events"
)

// RelationFetchError is returned when one of store calls to fetch relations of a Context fails.
type RelationFetchError struct {
	ContextId int64

	// the call caused this error.
	Call Call

	Err error
}

func (e *RelationFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s of context %d: %s", e.Call, e.ContextId, e.Err)
}

func (e *RelationFetchError) Unwrap() error {
	return e.Err
}

// DanglingReferenceError is returned when an Event refers an Artifact which is not fetched.
type DanglingReferenceError struct {
	Event domain.Event
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("artifact %d is not found for %s", e.Event.ArtifactId, e.Event)
}

// AggregationError is a failure of one of runs in an aggregation.
type AggregationError struct {
	Run string
	Err error
}

func (e *AggregationError) Error() string {
	if _, ok := e.Err.(*NoContextError); ok {
		return e.Err.Error()
	}
	return fmt.Sprintf("run %s: %s", e.Run, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// NoContextError is wrapped by AggregationError when a run does not have its Context.
type NoContextError struct {
	Run string
}

func (e *NoContextError) Error() string {
	return "No context for run: " + e.Run
}
