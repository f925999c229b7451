package domain

import (
	"fmt"
	"strconv"
	"strings"

	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
)

// Context type name of pipeline runs, as recorded by pipeline runners.
const PipelineRunContextType = "system.PipelineRun"

// Artifact type name of metrics.
const MetricsArtifactType = "system.Metrics"

type Context struct {
	Id     int64
	Name   string
	TypeId int64
}

func (c Context) Equal(o Context) bool {
	return c.Id == o.Id && c.Name == o.Name && c.TypeId == o.TypeId
}

func (c Context) Validate() error {
	if c.Id <= 0 {
		return kerr.InvalidRecord{Kind: "context", Id: c.Id, Reason: "id should be positive"}
	}
	if c.Name == "" {
		return kerr.InvalidRecord{Kind: "context", Id: c.Id, Reason: "name is empty"}
	}
	return nil
}

// ExecutionState is the last known state of an Execution.
//
// Its values are the codes used by the metadata store.
type ExecutionState int32

const (
	ExecutionUnknown  ExecutionState = 0
	ExecutionNew      ExecutionState = 1
	ExecutionRunning  ExecutionState = 2
	ExecutionComplete ExecutionState = 3
	ExecutionFailed   ExecutionState = 4
	ExecutionCached   ExecutionState = 5
	ExecutionCanceled ExecutionState = 6
)

func (s ExecutionState) String() string {
	switch s {
	case ExecutionNew:
		return "NEW"
	case ExecutionRunning:
		return "RUNNING"
	case ExecutionComplete:
		return "COMPLETE"
	case ExecutionFailed:
		return "FAILED"
	case ExecutionCached:
		return "CACHED"
	case ExecutionCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// AsExecutionState parses state code or name.
//
// Unknown codes are mapped to ExecutionUnknown; they are not an error
// because the store records executions without state.
func AsExecutionState(s string) ExecutionState {
	if code, err := strconv.ParseInt(s, 10, 32); err == nil {
		st := ExecutionState(code)
		if st < ExecutionUnknown || ExecutionCanceled < st {
			return ExecutionUnknown
		}
		return st
	}
	for st := ExecutionNew; st <= ExecutionCanceled; st++ {
		if strings.EqualFold(st.String(), s) {
			return st
		}
	}
	return ExecutionUnknown
}

// Terminated tells the execution has been stopped, successfully or not.
func (s ExecutionState) Terminated() bool {
	switch s {
	case ExecutionComplete, ExecutionFailed, ExecutionCached, ExecutionCanceled:
		return true
	}
	return false
}

type Execution struct {
	Id     int64
	TypeId int64
	State  ExecutionState
}

func (e Execution) Equal(o Execution) bool {
	return e.Id == o.Id && e.TypeId == o.TypeId && e.State == o.State
}

func (e Execution) Validate() error {
	if e.Id <= 0 {
		return kerr.InvalidRecord{Kind: "execution", Id: e.Id, Reason: "id should be positive"}
	}
	return nil
}

type ArtifactState int32

const (
	ArtifactUnknown           ArtifactState = 0
	ArtifactPending           ArtifactState = 1
	ArtifactLive              ArtifactState = 2
	ArtifactMarkedForDeletion ArtifactState = 3
	ArtifactDeleted           ArtifactState = 4
	ArtifactAbandoned         ArtifactState = 5
	ArtifactReference         ArtifactState = 6
)

func (s ArtifactState) String() string {
	switch s {
	case ArtifactPending:
		return "PENDING"
	case ArtifactLive:
		return "LIVE"
	case ArtifactMarkedForDeletion:
		return "MARKED_FOR_DELETION"
	case ArtifactDeleted:
		return "DELETED"
	case ArtifactAbandoned:
		return "ABANDONED"
	case ArtifactReference:
		return "REFERENCE"
	default:
		return "UNKNOWN"
	}
}

func AsArtifactState(s string) ArtifactState {
	if code, err := strconv.ParseInt(s, 10, 32); err == nil {
		st := ArtifactState(code)
		if st < ArtifactUnknown || ArtifactReference < st {
			return ArtifactUnknown
		}
		return st
	}
	for st := ArtifactPending; st <= ArtifactReference; st++ {
		if strings.EqualFold(st.String(), s) {
			return st
		}
	}
	return ArtifactUnknown
}

type ValueKind string

const (
	IntValue    ValueKind = "int"
	DoubleValue ValueKind = "double"
	StringValue ValueKind = "string"
)

// Value is a value of a (custom) property of Artifacts.
type Value struct {
	Kind   ValueKind
	Int    int64
	Double float64
	String string
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case IntValue:
		return v.Int == o.Int
	case DoubleValue:
		return v.Double == o.Double
	default:
		return v.String == o.String
	}
}

// Number returns the value as float64, if it is numeric.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case IntValue:
		return float64(v.Int), true
	case DoubleValue:
		return v.Double, true
	}
	return 0, false
}

func (v Value) Format() string {
	switch v.Kind {
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case DoubleValue:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	default:
		return v.String
	}
}

type Artifact struct {
	Id     int64
	TypeId int64
	Uri    string
	Name   string
	State  ArtifactState

	// custom properties, keyed by name.
	Properties map[string]Value
}

func (a Artifact) Equal(o Artifact) bool {
	if a.Id != o.Id || a.TypeId != o.TypeId || a.Uri != o.Uri || a.Name != o.Name || a.State != o.State {
		return false
	}
	if len(a.Properties) != len(o.Properties) {
		return false
	}
	for k, v := range a.Properties {
		ov, ok := o.Properties[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (a Artifact) Validate() error {
	if a.Id <= 0 {
		return kerr.InvalidRecord{Kind: "artifact", Id: a.Id, Reason: "id should be positive"}
	}
	return nil
}

// EventType is the type of Event, as codes used by the metadata store.
type EventType int32

const (
	EventUnknown        EventType = 0
	EventDeclaredOutput EventType = 1
	EventDeclaredInput  EventType = 2
	EventInput          EventType = 3
	EventOutput         EventType = 4
	EventInternalInput  EventType = 5
	EventInternalOutput EventType = 6
	EventPendingOutput  EventType = 7
)

func (t EventType) String() string {
	switch t {
	case EventDeclaredOutput:
		return "DECLARED_OUTPUT"
	case EventDeclaredInput:
		return "DECLARED_INPUT"
	case EventInput:
		return "INPUT"
	case EventOutput:
		return "OUTPUT"
	case EventInternalInput:
		return "INTERNAL_INPUT"
	case EventInternalOutput:
		return "INTERNAL_OUTPUT"
	case EventPendingOutput:
		return "PENDING_OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// AsEventType parses event type code (like "3") or name (like "INPUT").
//
// UNKNOWN or undefined types cause error wrapping ErrInvalidRecord.
func AsEventType(s string) (EventType, error) {
	if code, err := strconv.ParseInt(s, 10, 32); err == nil {
		t := EventType(code)
		if t <= EventUnknown || EventPendingOutput < t {
			return EventUnknown, fmt.Errorf("%w: unknown event type code %d", kerr.ErrInvalidRecord, code)
		}
		return t, nil
	}
	for t := EventDeclaredOutput; t <= EventPendingOutput; t++ {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return EventUnknown, fmt.Errorf("%w: unknown event type %q", kerr.ErrInvalidRecord, s)
}

// Direction of an Event, seen from its Execution.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

func (t EventType) Direction() (Direction, bool) {
	switch t {
	case EventInput, EventDeclaredInput, EventInternalInput:
		return Input, true
	case EventOutput, EventDeclaredOutput, EventInternalOutput, EventPendingOutput:
		return Output, true
	}
	return "", false
}

// EventStep is a step of Event path. It is an index or a key.
type EventStep struct {
	IsIndex bool
	Index   int64
	Key     string
}

func IndexStep(i int64) EventStep {
	return EventStep{IsIndex: true, Index: i}
}

func KeyStep(k string) EventStep {
	return EventStep{Key: k}
}

func (s EventStep) String() string {
	if s.IsIndex {
		return strconv.FormatInt(s.Index, 10)
	}
	return s.Key
}

type Event struct {
	ArtifactId  int64
	ExecutionId int64
	Type        EventType
	Path        []EventStep
}

func (e Event) Equal(o Event) bool {
	if e.ArtifactId != o.ArtifactId || e.ExecutionId != o.ExecutionId || e.Type != o.Type {
		return false
	}
	if len(e.Path) != len(o.Path) {
		return false
	}
	for i := range e.Path {
		if e.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

func (e Event) String() string {
	steps := make([]string, len(e.Path))
	for i, s := range e.Path {
		steps[i] = s.String()
	}
	return fmt.Sprintf(
		"Event{artifact: %d, execution: %d, type: %s, path: [%s]}",
		e.ArtifactId, e.ExecutionId, e.Type, strings.Join(steps, ","),
	)
}

// Validate checks ids and type.
//
// Events of UNKNOWN type are not accepted, since their direction cannot be decided.
func (e Event) Validate() error {
	if e.ArtifactId <= 0 {
		return kerr.InvalidRecord{Kind: "event", Id: e.ExecutionId, Reason: "artifact id should be positive"}
	}
	if e.ExecutionId <= 0 {
		return kerr.InvalidRecord{Kind: "event", Id: e.ArtifactId, Reason: "execution id should be positive"}
	}
	if _, ok := e.Type.Direction(); !ok {
		return kerr.InvalidRecord{
			Kind: "event", Id: e.ArtifactId,
			Reason: fmt.Sprintf("event type %s has no direction", e.Type),
		}
	}
	return nil
}

// LinkedArtifact is an Event joined with the Artifact referenced by it.
type LinkedArtifact struct {
	Artifact Artifact
	Event    Event
}

func (l LinkedArtifact) Equal(o LinkedArtifact) bool {
	return l.Artifact.Equal(o.Artifact) && l.Event.Equal(o.Event)
}

// RunRelationalBundle is records of a pipeline run.
type RunRelationalBundle struct {
	// identifier of the run. This is same as the name of the Context of the run.
	Run string

	Executions []Execution
	Artifacts  []Artifact
	Events     []Event
}

func (b RunRelationalBundle) Equal(o RunRelationalBundle) bool {
	if b.Run != o.Run {
		return false
	}
	if len(b.Executions) != len(o.Executions) || len(b.Artifacts) != len(o.Artifacts) || len(b.Events) != len(o.Events) {
		return false
	}
	for i := range b.Executions {
		if !b.Executions[i].Equal(o.Executions[i]) {
			return false
		}
	}
	for i := range b.Artifacts {
		if !b.Artifacts[i].Equal(o.Artifacts[i]) {
			return false
		}
	}
	for i := range b.Events {
		if !b.Events[i].Equal(o.Events[i]) {
			return false
		}
	}
	return true
}

type TypeKind int32

const (
	ExecutionTypeKind TypeKind = 0
	ArtifactTypeKind  TypeKind = 1
	ContextTypeKind   TypeKind = 2
)

func (k TypeKind) String() string {
	switch k {
	case ExecutionTypeKind:
		return "execution"
	case ArtifactTypeKind:
		return "artifact"
	case ContextTypeKind:
		return "context"
	}
	return fmt.Sprintf("TypeKind(%d)", int32(k))
}

func AsTypeKind(s string) (TypeKind, error) {
	switch strings.ToLower(s) {
	case "execution":
		return ExecutionTypeKind, nil
	case "artifact":
		return ArtifactTypeKind, nil
	case "context":
		return ContextTypeKind, nil
	}
	return 0, fmt.Errorf("unknown type kind: %q", s)
}

type Type struct {
	Id   int64
	Name string
	Kind TypeKind
}

// PageQuery is a query for paged listing.
type PageQuery struct {
	// opaque token issued by the store. Empty for the first page.
	Token string

	// the number of items in a page. Zero or negative means the store's default.
	Size int
}

// Page is a part of paged listing.
type Page[T any] struct {
	Items []T

	// token to get the next page. Empty if this is the last page.
	NextToken string
}
