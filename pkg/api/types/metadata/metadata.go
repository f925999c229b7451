// Package metadata is JSON representation of ML metadata records served by lineaged.
package metadata

type Context struct {
	Id     int64  `json:"id"`
	Name   string `json:"name"`
	TypeId int64  `json:"typeId"`
}

type Execution struct {
	Id     int64 `json:"id"`
	TypeId int64 `json:"typeId"`

	// one of UNKNOWN, NEW, RUNNING, COMPLETE, FAILED, CACHED or CANCELED.
	State string `json:"state"`
}

// Value is a value of a property. Exactly one of fields is set.
type Value struct {
	Int    *int64   `json:"intValue,omitempty"`
	Double *float64 `json:"doubleValue,omitempty"`
	String *string  `json:"stringValue,omitempty"`
}

type Artifact struct {
	Id         int64            `json:"id"`
	TypeId     int64            `json:"typeId"`
	Uri        string           `json:"uri,omitempty"`
	Name       string           `json:"name,omitempty"`
	State      string           `json:"state"`
	Properties map[string]Value `json:"customProperties,omitempty"`
}

// Step is a step of Event path. Exactly one of fields is set.
type Step struct {
	Index *int64  `json:"index,omitempty"`
	Key   *string `json:"key,omitempty"`
}

type Event struct {
	ArtifactId  int64  `json:"artifactId"`
	ExecutionId int64  `json:"executionId"`
	Type        string `json:"type"`
	Path        []Step `json:"path,omitempty"`
}

type Type struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`

	// one of execution, artifact or context.
	Kind string `json:"kind"`
}

type ExecutionPage struct {
	Executions    []Execution `json:"executions"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}
