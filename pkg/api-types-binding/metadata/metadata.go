// Package metadata converts domain records to and from JSON types of lineaged.
//
// Parse functions validate records, since they come from outside.
package metadata

import (
	"fmt"

	apimeta "github.com/opst/pipeline-lineage/pkg/api/types/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

func ComposeContext(c domain.Context) apimeta.Context {
	return apimeta.Context{Id: c.Id, Name: c.Name, TypeId: c.TypeId}
}

func ParseContext(c apimeta.Context) (domain.Context, error) {
	ret := domain.Context{Id: c.Id, Name: c.Name, TypeId: c.TypeId}
	return ret, ret.Validate()
}

func ComposeExecution(e domain.Execution) apimeta.Execution {
	return apimeta.Execution{Id: e.Id, TypeId: e.TypeId, State: e.State.String()}
}

func ParseExecution(e apimeta.Execution) (domain.Execution, error) {
	ret := domain.Execution{Id: e.Id, TypeId: e.TypeId, State: domain.AsExecutionState(e.State)}
	return ret, ret.Validate()
}

func ComposeValue(v domain.Value) apimeta.Value {
	switch v.Kind {
	case domain.IntValue:
		return apimeta.Value{Int: &v.Int}
	case domain.DoubleValue:
		return apimeta.Value{Double: &v.Double}
	default:
		return apimeta.Value{String: &v.String}
	}
}

func ParseValue(v apimeta.Value) (domain.Value, error) {
	switch {
	case v.Int != nil && v.Double == nil && v.String == nil:
		return domain.Value{Kind: domain.IntValue, Int: *v.Int}, nil
	case v.Int == nil && v.Double != nil && v.String == nil:
		return domain.Value{Kind: domain.DoubleValue, Double: *v.Double}, nil
	case v.Int == nil && v.Double == nil && v.String != nil:
		return domain.Value{Kind: domain.StringValue, String: *v.String}, nil
	}
	return domain.Value{}, fmt.Errorf("%w: value should have exactly one of int, double or string", kerr.ErrInvalidRecord)
}

func ComposeArtifact(a domain.Artifact) apimeta.Artifact {
	var props map[string]apimeta.Value
	if len(a.Properties) != 0 {
		props = make(map[string]apimeta.Value, len(a.Properties))
		for k, v := range a.Properties {
			props[k] = ComposeValue(v)
		}
	}
	return apimeta.Artifact{
		Id: a.Id, TypeId: a.TypeId, Uri: a.Uri, Name: a.Name,
		State: a.State.String(), Properties: props,
	}
}

func ParseArtifact(a apimeta.Artifact) (domain.Artifact, error) {
	ret := domain.Artifact{
		Id: a.Id, TypeId: a.TypeId, Uri: a.Uri, Name: a.Name,
		State: domain.AsArtifactState(a.State),
	}
	if len(a.Properties) != 0 {
		ret.Properties = make(map[string]domain.Value, len(a.Properties))
		for k, v := range a.Properties {
			dv, err := ParseValue(v)
			if err != nil {
				return domain.Artifact{}, fmt.Errorf("artifact %d, property %q: %w", a.Id, k, err)
			}
			ret.Properties[k] = dv
		}
	}
	return ret, ret.Validate()
}

func ComposeStep(s domain.EventStep) apimeta.Step {
	if s.IsIndex {
		return apimeta.Step{Index: &s.Index}
	}
	return apimeta.Step{Key: &s.Key}
}

func ParseStep(s apimeta.Step) (domain.EventStep, error) {
	switch {
	case s.Index != nil && s.Key == nil:
		return domain.IndexStep(*s.Index), nil
	case s.Index == nil && s.Key != nil:
		return domain.KeyStep(*s.Key), nil
	}
	return domain.EventStep{}, fmt.Errorf("%w: step should have exactly one of index or key", kerr.ErrInvalidRecord)
}

func ComposeEvent(e domain.Event) apimeta.Event {
	return apimeta.Event{
		ArtifactId:  e.ArtifactId,
		ExecutionId: e.ExecutionId,
		Type:        e.Type.String(),
		Path:        utils.Map(e.Path, ComposeStep),
	}
}

func ParseEvent(e apimeta.Event) (domain.Event, error) {
	typ, err := domain.AsEventType(e.Type)
	if err != nil {
		return domain.Event{}, err
	}
	path, err := utils.MapUntilError(e.Path, ParseStep)
	if err != nil {
		return domain.Event{}, err
	}
	if len(path) == 0 {
		path = nil
	}
	ret := domain.Event{
		ArtifactId: e.ArtifactId, ExecutionId: e.ExecutionId, Type: typ, Path: path,
	}
	return ret, ret.Validate()
}

func ComposeType(t domain.Type) apimeta.Type {
	return apimeta.Type{Id: t.Id, Name: t.Name, Kind: t.Kind.String()}
}

func ParseType(t apimeta.Type) (domain.Type, error) {
	kind, err := domain.AsTypeKind(t.Kind)
	if err != nil {
		return domain.Type{}, err
	}
	return domain.Type{Id: t.Id, Name: t.Name, Kind: kind}, nil
}

func ComposeExecutionPage(p domain.Page[domain.Execution]) apimeta.ExecutionPage {
	return apimeta.ExecutionPage{
		Executions:    utils.Map(p.Items, ComposeExecution),
		NextPageToken: p.NextToken,
	}
}

func ParseExecutionPage(p apimeta.ExecutionPage) (domain.Page[domain.Execution], error) {
	items, err := utils.MapUntilError(p.Executions, ParseExecution)
	if err != nil {
		return domain.Page[domain.Execution]{}, err
	}
	return domain.Page[domain.Execution]{Items: items, NextToken: p.NextPageToken}, nil
}
