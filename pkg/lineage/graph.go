package lineage

import "github.com/opst/pipeline-lineage/pkg/domain"

// Edge connects an Artifact and an Execution.
type Edge struct {
	ArtifactId  int64
	ExecutionId int64
	Direction   domain.Direction
	Path        []domain.EventStep
}

// Graph is a lineage graph of a run.
//
// Nodes are Executions and Artifacts. Edges are made from Events.
type Graph struct {
	Run        string
	Executions map[int64]domain.Execution
	Artifacts  map[int64]domain.Artifact
	Edges      []Edge
}

// BuildGraph creates a lineage graph from a bundle.
//
// Returns
//
// - Graph
//
// - error: *DanglingReferenceError when an Event refers an Artifact not in the bundle,
// or an Execution not in the bundle.
func BuildGraph(bundle domain.RunRelationalBundle) (Graph, error) {
	linked, err := LinkArtifacts(bundle.Events, bundle.Artifacts)
	if err != nil {
		return Graph{}, err
	}

	g := Graph{
		Run:        bundle.Run,
		Executions: make(map[int64]domain.Execution, len(bundle.Executions)),
		Artifacts:  make(map[int64]domain.Artifact, len(bundle.Artifacts)),
		Edges:      make([]Edge, 0, len(linked)),
	}
	for _, e := range bundle.Executions {
		g.Executions[e.Id] = e
	}
	for _, a := range bundle.Artifacts {
		g.Artifacts[a.Id] = a
	}

	for _, l := range linked {
		if _, ok := g.Executions[l.Event.ExecutionId]; !ok {
			return Graph{}, &DanglingReferenceError{Event: l.Event}
		}
		dir, ok := l.Event.Type.Direction()
		if !ok {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			ArtifactId:  l.Artifact.Id,
			ExecutionId: l.Event.ExecutionId,
			Direction:   dir,
			Path:        l.Event.Path,
		})
	}
	return g, nil
}

func (g Graph) artifactsOf(executionId int64, dir domain.Direction) []domain.Artifact {
	ret := []domain.Artifact{}
	for _, e := range g.Edges {
		if e.ExecutionId == executionId && e.Direction == dir {
			ret = append(ret, g.Artifacts[e.ArtifactId])
		}
	}
	return ret
}

func (g Graph) executionsOf(artifactId int64, dir domain.Direction) []domain.Execution {
	ret := []domain.Execution{}
	for _, e := range g.Edges {
		if e.ArtifactId == artifactId && e.Direction == dir {
			ret = append(ret, g.Executions[e.ExecutionId])
		}
	}
	return ret
}

// Inputs returns Artifacts consumed by the Execution.
func (g Graph) Inputs(executionId int64) []domain.Artifact {
	return g.artifactsOf(executionId, domain.Input)
}

// Outputs returns Artifacts produced by the Execution.
func (g Graph) Outputs(executionId int64) []domain.Artifact {
	return g.artifactsOf(executionId, domain.Output)
}

// Producers returns Executions which output the Artifact.
func (g Graph) Producers(artifactId int64) []domain.Execution {
	return g.executionsOf(artifactId, domain.Output)
}

// Consumers returns Executions which input the Artifact.
func (g Graph) Consumers(artifactId int64) []domain.Execution {
	return g.executionsOf(artifactId, domain.Input)
}
