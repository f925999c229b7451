package lineage

import (
	apilin "github.com/opst/pipeline-lineage/pkg/api/types/lineage"
	bindmeta "github.com/opst/pipeline-lineage/pkg/api-types-binding/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

func ComposeBundle(b domain.RunRelationalBundle) apilin.Bundle {
	return apilin.Bundle{
		Run:        b.Run,
		Executions: utils.Map(b.Executions, bindmeta.ComposeExecution),
		Artifacts:  utils.Map(b.Artifacts, bindmeta.ComposeArtifact),
		Events:     utils.Map(b.Events, bindmeta.ComposeEvent),
	}
}

func ComposeDetail(b domain.RunRelationalBundle, linked []domain.LinkedArtifact, g lineage.Graph) apilin.Detail {
	return apilin.Detail{
		Bundle: ComposeBundle(b),
		Linked: utils.Map(linked, func(l domain.LinkedArtifact) apilin.LinkedArtifact {
			return apilin.LinkedArtifact{
				Artifact: bindmeta.ComposeArtifact(l.Artifact),
				Event:    bindmeta.ComposeEvent(l.Event),
			}
		}),
		Graph: ComposeGraph(b, g),
	}
}

func artifactIds(as []domain.Artifact) []int64 {
	return utils.Map(as, func(a domain.Artifact) int64 { return a.Id })
}

func executionIds(es []domain.Execution) []int64 {
	return utils.Map(es, func(e domain.Execution) int64 { return e.Id })
}

// ComposeGraph composes a lineage graph of the bundle.
//
// Nodes are listed in the order of the bundle.
func ComposeGraph(b domain.RunRelationalBundle, g lineage.Graph) apilin.Graph {
	return apilin.Graph{
		Executions: utils.Map(b.Executions, func(e domain.Execution) apilin.ExecutionNode {
			return apilin.ExecutionNode{
				ExecutionId: e.Id,
				Inputs:      artifactIds(g.Inputs(e.Id)),
				Outputs:     artifactIds(g.Outputs(e.Id)),
			}
		}),
		Artifacts: utils.Map(b.Artifacts, func(a domain.Artifact) apilin.ArtifactNode {
			return apilin.ArtifactNode{
				ArtifactId: a.Id,
				Producers:  executionIds(g.Producers(a.Id)),
				Consumers:  executionIds(g.Consumers(a.Id)),
			}
		}),
		Edges: utils.Map(g.Edges, func(e lineage.Edge) apilin.Edge {
			return apilin.Edge{
				ArtifactId:  e.ArtifactId,
				ExecutionId: e.ExecutionId,
				Direction:   string(e.Direction),
				Path:        utils.Map(e.Path, bindmeta.ComposeStep),
			}
		}),
	}
}

// ComposeSettled composes results of lineage.AggregateRunsSettled.
//
// Failed runs are listed in Errors, and succeeded runs are in Runs.
func ComposeSettled(results []lineage.Result) apilin.Lineage {
	ret := apilin.Lineage{Runs: []apilin.Bundle{}}
	for _, r := range results {
		if r.Err != nil {
			ret.Errors = append(ret.Errors, apilin.RunError{Run: r.Run, Reason: r.Err.Error()})
			continue
		}
		ret.Runs = append(ret.Runs, ComposeBundle(r.Bundle))
	}
	return ret
}

func ComposeRunMetrics(m lineage.RunMetrics) apilin.RunMetrics {
	return apilin.RunMetrics{
		Run: m.Run,
		Metrics: utils.Map(m.Metrics, func(m lineage.Metric) apilin.Metric {
			return apilin.Metric{
				ArtifactId: m.ArtifactId, Artifact: m.Artifact, Name: m.Name, Value: m.Value,
			}
		}),
	}
}
