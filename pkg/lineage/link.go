package lineage

import (
	"github.com/opst/pipeline-lineage/pkg/domain"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

// LinkArtifacts joins Events with Artifacts referenced by them.
//
// Returns
//
// - []domain.LinkedArtifact: one for each Event, in the order of events.
//
// - error: *DanglingReferenceError for the first Event whose Artifact is not in artifacts.
func LinkArtifacts(events []domain.Event, artifacts []domain.Artifact) ([]domain.LinkedArtifact, error) {
	index := utils.IndexBy(artifacts, func(a domain.Artifact) int64 { return a.Id })

	linked := make([]domain.LinkedArtifact, 0, len(events))
	for _, ev := range events {
		a, ok := index[ev.ArtifactId]
		if !ok {
			return nil, &DanglingReferenceError{Event: ev}
		}
		linked = append(linked, domain.LinkedArtifact{Artifact: a, Event: ev})
	}
	return linked, nil
}
