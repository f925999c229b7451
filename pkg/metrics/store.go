// Package metrics counts calls to the metadata store, and exposes them in Prometheus text format.
package metrics

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const (
	MetricCalls    = "lineage_store_calls_total"
	MetricErrors   = "lineage_store_errors_total"
	MetricDuration = "lineage_store_call_duration_seconds"

	labelMethod = "method"
)

type stat struct {
	calls    uint64
	errors   uint64
	duration time.Duration
}

// StoreMetrics is statistics of calls to the metadata store, by method.
type StoreMetrics struct {
	mu    sync.Mutex
	stats map[string]*stat
	now   func() time.Time
}

func New() *StoreMetrics {
	return &StoreMetrics{stats: map[string]*stat{}, now: time.Now}
}

// observe starts timing a call to the method. Call the returned func with the error of the call.
func (m *StoreMetrics) observe(method string) func(error) {
	begin := m.now()
	return func(err error) {
		elapsed := m.now().Sub(begin)

		m.mu.Lock()
		defer m.mu.Unlock()
		s, ok := m.stats[method]
		if !ok {
			s = &stat{}
			m.stats[method] = s
		}
		s.calls += 1
		s.duration += elapsed
		if err != nil {
			s.errors += 1
		}
	}
}

// Families returns snapshot of metrics.
func (m *StoreMetrics) Families() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	methods := make([]string, 0, len(m.stats))
	for k := range m.stats {
		methods = append(methods, k)
	}
	sort.Strings(methods)

	calls := &dto.MetricFamily{
		Name: proto.String(MetricCalls),
		Help: proto.String("The number of calls to the metadata store."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	errs := &dto.MetricFamily{
		Name: proto.String(MetricErrors),
		Help: proto.String("The number of failed calls to the metadata store."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	duration := &dto.MetricFamily{
		Name: proto.String(MetricDuration),
		Help: proto.String("Time spent for calls to the metadata store."),
		Type: dto.MetricType_SUMMARY.Enum(),
	}

	for _, method := range methods {
		s := m.stats[method]
		label := []*dto.LabelPair{{Name: proto.String(labelMethod), Value: proto.String(method)}}

		calls.Metric = append(calls.Metric, &dto.Metric{
			Label:   label,
			Counter: &dto.Counter{Value: proto.Float64(float64(s.calls))},
		})
		errs.Metric = append(errs.Metric, &dto.Metric{
			Label:   label,
			Counter: &dto.Counter{Value: proto.Float64(float64(s.errors))},
		})
		duration.Metric = append(duration.Metric, &dto.Metric{
			Label: label,
			Summary: &dto.Summary{
				SampleCount: proto.Uint64(s.calls),
				SampleSum:   proto.Float64(s.duration.Seconds()),
			},
		})
	}

	return []*dto.MetricFamily{calls, errs, duration}
}

// WriteText writes metrics in Prometheus text exposition format.
func (m *StoreMetrics) WriteText(w io.Writer) error {
	for _, mf := range m.Families() {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

type instrumented struct {
	base    kdb.MetadataInterface
	metrics *StoreMetrics
}

// Instrument wraps store to count its calls into metrics.
func Instrument(store kdb.MetadataInterface, metrics *StoreMetrics) kdb.MetadataInterface {
	return &instrumented{base: store, metrics: metrics}
}

func (i *instrumented) GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error) {
	done := i.metrics.observe("GetContextsByType")
	ret, err := i.base.GetContextsByType(ctx, typeName)
	done(err)
	return ret, err
}

func (i *instrumented) GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
	done := i.metrics.observe("GetArtifactsByContext")
	ret, err := i.base.GetArtifactsByContext(ctx, contextId)
	done(err)
	return ret, err
}

func (i *instrumented) GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error) {
	done := i.metrics.observe("GetExecutionsByContext")
	ret, err := i.base.GetExecutionsByContext(ctx, contextId)
	done(err)
	return ret, err
}

func (i *instrumented) GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
	done := i.metrics.observe("GetEventsByExecutionIds")
	ret, err := i.base.GetEventsByExecutionIds(ctx, executionIds)
	done(err)
	return ret, err
}

func (i *instrumented) GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
	done := i.metrics.observe("GetArtifactsById")
	ret, err := i.base.GetArtifactsById(ctx, artifactIds)
	done(err)
	return ret, err
}

func (i *instrumented) GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error) {
	done := i.metrics.observe("GetArtifactType")
	ret, err := i.base.GetArtifactType(ctx, typeId)
	done(err)
	return ret, err
}

func (i *instrumented) GetContextType(ctx context.Context, typeId int64) (domain.Type, error) {
	done := i.metrics.observe("GetContextType")
	ret, err := i.base.GetContextType(ctx, typeId)
	done(err)
	return ret, err
}

func (i *instrumented) GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error) {
	done := i.metrics.observe("GetExecutionType")
	ret, err := i.base.GetExecutionType(ctx, typeId)
	done(err)
	return ret, err
}

func (i *instrumented) FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
	done := i.metrics.observe("FindExecutions")
	ret, err := i.base.FindExecutions(ctx, query)
	done(err)
	return ret, err
}
