package metadata_test

import (
	"errors"
	"testing"

	bindmeta "github.com/opst/pipeline-lineage/pkg/api-types-binding/metadata"
	apimeta "github.com/opst/pipeline-lineage/pkg/api/types/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
)

func ref[T any](v T) *T {
	return &v
}

func TestParseValue(t *testing.T) {
	type then struct {
		value domain.Value
		err   error
	}
	theory := func(when apimeta.Value, then then) func(*testing.T) {
		return func(t *testing.T) {
			actual, err := bindmeta.ParseValue(when)
			if !errors.Is(err, then.err) {
				t.Fatalf("unexpected error: (actual, expected) = (%v, %v)", err, then.err)
			}
			if !actual.Equal(then.value) {
				t.Errorf(
					"not match:\n- actual   : %+v\n- expected : %+v",
					actual, then.value,
				)
			}
		}
	}

	t.Run("int", theory(
		apimeta.Value{Int: ref[int64](42)},
		then{value: domain.Value{Kind: domain.IntValue, Int: 42}},
	))
	t.Run("double", theory(
		apimeta.Value{Double: ref(0.5)},
		then{value: domain.Value{Kind: domain.DoubleValue, Double: 0.5}},
	))
	t.Run("string", theory(
		apimeta.Value{String: ref("baseline")},
		then{value: domain.Value{Kind: domain.StringValue, String: "baseline"}},
	))
	t.Run("nothing is set", theory(
		apimeta.Value{},
		then{err: kerr.ErrInvalidRecord},
	))
	t.Run("two fields are set", theory(
		apimeta.Value{Int: ref[int64](1), String: ref("1")},
		then{err: kerr.ErrInvalidRecord},
	))
}

func TestParseEvent(t *testing.T) {
	type then struct {
		event domain.Event
		err   error
	}
	theory := func(when apimeta.Event, then then) func(*testing.T) {
		return func(t *testing.T) {
			actual, err := bindmeta.ParseEvent(when)
			if !errors.Is(err, then.err) {
				t.Fatalf("unexpected error: (actual, expected) = (%v, %v)", err, then.err)
			}
			if then.err != nil {
				return
			}
			if !actual.Equal(then.event) {
				t.Errorf(
					"not match:\n- actual   : %+v\n- expected : %+v",
					actual, then.event,
				)
			}
		}
	}

	t.Run("event with path", theory(
		apimeta.Event{
			ArtifactId: 201, ExecutionId: 101, Type: "OUTPUT",
			Path: []apimeta.Step{{Key: ref("model")}, {Index: ref[int64](0)}},
		},
		then{event: domain.Event{
			ArtifactId: 201, ExecutionId: 101, Type: domain.EventOutput,
			Path: []domain.EventStep{domain.KeyStep("model"), domain.IndexStep(0)},
		}},
	))
	t.Run("event type is given as its code", theory(
		apimeta.Event{ArtifactId: 201, ExecutionId: 101, Type: "3"},
		then{event: domain.Event{ArtifactId: 201, ExecutionId: 101, Type: domain.EventInput}},
	))
	t.Run("UNKNOWN event type", theory(
		apimeta.Event{ArtifactId: 201, ExecutionId: 101, Type: "UNKNOWN"},
		then{err: kerr.ErrInvalidRecord},
	))
	t.Run("step with both of index and key", theory(
		apimeta.Event{
			ArtifactId: 201, ExecutionId: 101, Type: "INPUT",
			Path: []apimeta.Step{{Key: ref("k"), Index: ref[int64](1)}},
		},
		then{err: kerr.ErrInvalidRecord},
	))
	t.Run("no artifact id", theory(
		apimeta.Event{ExecutionId: 101, Type: "INPUT"},
		then{err: kerr.ErrInvalidRecord},
	))
}

func TestParseRecords(t *testing.T) {
	t.Run("context without name is rejected", func(t *testing.T) {
		_, err := bindmeta.ParseContext(apimeta.Context{Id: 1, TypeId: 10})
		if !errors.Is(err, kerr.ErrInvalidRecord) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("execution with unexpected state is parsed as UNKNOWN", func(t *testing.T) {
		actual, err := bindmeta.ParseExecution(apimeta.Execution{Id: 101, TypeId: 20, State: "SLEEPING"})
		if err != nil {
			t.Fatal(err)
		}
		if actual.State != domain.ExecutionUnknown {
			t.Errorf("unexpected state: %s", actual.State)
		}
	})

	t.Run("artifact with broken property is rejected", func(t *testing.T) {
		_, err := bindmeta.ParseArtifact(apimeta.Artifact{
			Id: 203, TypeId: 32, State: "LIVE",
			Properties: map[string]apimeta.Value{"accuracy": {}},
		})
		if !errors.Is(err, kerr.ErrInvalidRecord) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("composed artifact is parsed back", func(t *testing.T) {
		expected := domain.Artifact{
			Id: 203, TypeId: 32, Uri: "s3://bucket/metrics", Name: "metrics", State: domain.ArtifactLive,
			Properties: map[string]domain.Value{
				"accuracy": {Kind: domain.DoubleValue, Double: 0.875},
				"epochs":   {Kind: domain.IntValue, Int: 12},
			},
		}
		actual, err := bindmeta.ParseArtifact(bindmeta.ComposeArtifact(expected))
		if err != nil {
			t.Fatal(err)
		}
		if !actual.Equal(expected) {
			t.Errorf(
				"not match:\n- actual   : %+v\n- expected : %+v",
				actual, expected,
			)
		}
	})

	t.Run("type with unknown kind is rejected", func(t *testing.T) {
		if _, err := bindmeta.ParseType(apimeta.Type{Id: 10, Name: "system.Run", Kind: "pipeline"}); err == nil {
			t.Error("expected error, but nil")
		}
	})
}
