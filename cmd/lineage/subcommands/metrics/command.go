package metrics

import (
	"context"
	"log"

	"github.com/opst/pipeline-lineage/cmd/lineage/subcommands/common"
	bindlin "github.com/opst/pipeline-lineage/pkg/api-types-binding/lineage"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils"
	"github.com/youta-t/flarc"
)

const ARG_RUN = "RUN"

type Flags struct {
	Type string `flag:"type" alias:"t" help:"Context type name of pipeline runs"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Compare metrics of pipeline runs.",
		Flags{Type: domain.PipelineRunContextType},
		flarc.Args{
			{
				Name: ARG_RUN, Required: true, Repeatable: true,
				Help: "Name of pipeline runs to be compared",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show numeric properties of metrics Artifacts (type "`+domain.MetricsArtifactType+`") for each run.
`),
	)
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		store kdb.MetadataInterface,
		cl flarc.Commandline[Flags],
		_ []any,
	) error {
		runs := cl.Args()[ARG_RUN]

		contexts, err := lineage.ResolveContexts(ctx, store, runs, cl.Flags().Type)
		if err != nil {
			return err
		}
		bundles, err := lineage.AggregateRuns(ctx, store, runs, contexts)
		if err != nil {
			return err
		}

		metrics, err := lineage.CompareMetrics(ctx, lineage.ArtifactTypeNames(store), bundles)
		if err != nil {
			return err
		}
		return common.Print(cl.Stdout(), utils.Map(metrics, bindlin.ComposeRunMetrics))
	}
}
