package domain

// domain package contains the Domain Models and Interfaces for the pipeline lineage aggregator.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/metadata.go` contains `Context`, `Execution`, `Artifact` and `Event`.
//
// `domain/ENTITY` directory contains the "phisical" representation of the domain entities.
// For example, `domain/metadata/db` exposes the client interface to read them from a metadata store,
// and `domain/metadata/db/postgres` is the implementation for the metadata store on PostgreSQL.
//
// # Entities
//
// Entities are recorded by pipeline runners in an ML metadata store.
// They are read only from this application.
//
// - `Context`: a named grouping of records. One Context is created for each pipeline run,
// and its name is the identifier of the run.
//
// - `Execution`: a record of one step invocation within a run.
//
// - `Artifact`: a record describing one data object (model, dataset, metrics) tracked by the store.
//
// - `Event`: a directed link connecting one Artifact to one Execution, as an input or an output.
//
// - `Type`: a named type of Artifacts, Executions or Contexts.
//
// And derived ones, which are not stored:
//
// - `LinkedArtifact`: an Event joined with the Artifact it references.
//
// - `RunRelationalBundle`: Executions, Artifacts and Events under a Context of a run.
