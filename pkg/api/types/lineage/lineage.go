// Package lineage is JSON representation of lineage of pipeline runs served by lineaged.
package lineage

import "github.com/opst/pipeline-lineage/pkg/api/types/metadata"

// Bundle is records of a pipeline run.
type Bundle struct {
	Run        string               `json:"run"`
	Executions []metadata.Execution `json:"executions"`
	Artifacts  []metadata.Artifact  `json:"artifacts"`
	Events     []metadata.Event     `json:"events"`
}

type LinkedArtifact struct {
	Artifact metadata.Artifact `json:"artifact"`
	Event    metadata.Event    `json:"event"`
}

// Edge connects an Artifact and an Execution. Direction is "input" or "output".
type Edge struct {
	ArtifactId  int64           `json:"artifactId"`
	ExecutionId int64           `json:"executionId"`
	Direction   string          `json:"direction"`
	Path        []metadata.Step `json:"path,omitempty"`
}

// ExecutionNode lists ids of Artifacts consumed and produced by an Execution.
type ExecutionNode struct {
	ExecutionId int64   `json:"executionId"`
	Inputs      []int64 `json:"inputs"`
	Outputs     []int64 `json:"outputs"`
}

// ArtifactNode lists ids of Executions producing and consuming an Artifact.
type ArtifactNode struct {
	ArtifactId int64   `json:"artifactId"`
	Producers  []int64 `json:"producers"`
	Consumers  []int64 `json:"consumers"`
}

type Graph struct {
	Executions []ExecutionNode `json:"executions"`
	Artifacts  []ArtifactNode  `json:"artifacts"`
	Edges      []Edge          `json:"edges"`
}

// Detail is a Bundle of a run with its Artifacts linked to Events, and its lineage graph.
type Detail struct {
	Bundle
	Linked []LinkedArtifact `json:"linkedArtifacts"`
	Graph  Graph            `json:"graph"`
}

// RunError is a failure of a run in a partial result.
type RunError struct {
	Run    string `json:"run"`
	Reason string `json:"reason"`
}

type Lineage struct {
	Runs []Bundle `json:"runs"`

	// runs failed to be aggregated. It is set only for partial results.
	Errors []RunError `json:"errors,omitempty"`
}

type Metric struct {
	ArtifactId int64   `json:"artifactId"`
	Artifact   string  `json:"artifact,omitempty"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
}

type RunMetrics struct {
	Run     string   `json:"run"`
	Metrics []Metric `json:"metrics"`
}
