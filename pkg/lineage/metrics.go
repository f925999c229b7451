package lineage

import (
	"context"
	"maps"
	"slices"
	"sort"

	"github.com/opst/pipeline-lineage/pkg/domain"
)

type Metric struct {
	ArtifactId int64

	// name of the metrics Artifact.
	Artifact string

	// name of the property.
	Name  string
	Value float64
}

// RunMetrics is metrics recorded in a run.
type RunMetrics struct {
	Run     string
	Metrics []Metric
}

// CompareMetrics collects numeric properties of metrics Artifacts for each run.
//
// Artifacts are metrics when their type name is domain.MetricsArtifactType.
//
// Args
//
// - context.Context
//
// - *TypeNameResolver: resolver for Artifact types.
//
// - []domain.RunRelationalBundle: runs to be compared.
//
// Returns
//
// - []RunMetrics: metrics for each bundle, in the order of bundles.
// Metrics of a run are sorted by (artifact id, property name).
//
// - error: error from resolving type names.
func CompareMetrics(ctx context.Context, artifactTypes *TypeNameResolver, bundles []domain.RunRelationalBundle) ([]RunMetrics, error) {
	typeIds := map[int64]struct{}{}
	for _, b := range bundles {
		for _, a := range b.Artifacts {
			typeIds[a.TypeId] = struct{}{}
		}
	}
	names, err := artifactTypes.ResolveAll(ctx, slices.Collect(maps.Keys(typeIds)))
	if err != nil {
		return nil, err
	}

	ret := make([]RunMetrics, 0, len(bundles))
	for _, b := range bundles {
		rm := RunMetrics{Run: b.Run, Metrics: []Metric{}}
		for _, a := range b.Artifacts {
			if names[a.TypeId] != domain.MetricsArtifactType {
				continue
			}
			for name, v := range a.Properties {
				n, ok := v.Number()
				if !ok {
					continue
				}
				rm.Metrics = append(rm.Metrics, Metric{
					ArtifactId: a.Id, Artifact: a.Name, Name: name, Value: n,
				})
			}
		}
		sort.Slice(rm.Metrics, func(i, j int) bool {
			mi, mj := rm.Metrics[i], rm.Metrics[j]
			if mi.ArtifactId != mj.ArtifactId {
				return mi.ArtifactId < mj.ArtifactId
			}
			return mi.Name < mj.Name
		})
		ret = append(ret, rm)
	}
	return ret, nil
}
