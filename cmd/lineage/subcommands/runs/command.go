package runs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/opst/pipeline-lineage/cmd/lineage/subcommands/common"
	bindlin "github.com/opst/pipeline-lineage/pkg/api-types-binding/lineage"
	apilin "github.com/opst/pipeline-lineage/pkg/api/types/lineage"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils"
	"github.com/youta-t/flarc"
)

const ARG_RUN = "RUN"

type Flags struct {
	Type    string        `flag:"type" alias:"t" help:"Context type name of pipeline runs"`
	Partial bool          `flag:"partial" help:"report failed runs in output, instead of failing"`
	Watch   time.Duration `flag:"watch" alias:"w" help:"show lineage repeatedly in the interval. 0 means once"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show lineage of pipeline runs.",
		Flags{Type: domain.PipelineRunContextType},
		flarc.Args{
			{
				Name: ARG_RUN, Required: true, Repeatable: true,
				Help: "Name of pipeline runs to be shown",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Show Executions, Artifacts and Events of pipeline runs, in the order of arguments.

By default, it fails when any of runs cannot be shown.
With --partial, failed runs are reported in "errors" of the output.

With --watch, it shows lineage for each interval until interrupted.
When a refresh takes longer than the interval, it is superseded by the next one.

    {{ .Command }} --watch 5s run-a run-b
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
		flags := cl.Flags()
		runs := cl.Args()[ARG_RUN]
		if flags.Watch < 0 {
			return fmt.Errorf("%w: --watch should not be negative", flarc.ErrUsage)
		}

		if flags.Watch == 0 {
			l, err := Show(ctx, store, runs, flags.Type, flags.Partial)
			if err != nil {
				return err
			}
			return common.Print(cl.Stdout(), l)
		}

		if flags.Partial {
			logger.Println("--partial is ignored with --watch")
		}
		session := lineage.NewSession(store)
		return Watch(
			ctx, logger, session, runs, flags.Type, flags.Watch,
			func(bundles []domain.RunRelationalBundle) error {
				return common.Print(cl.Stdout(), apilin.Lineage{
					Runs: utils.Map(bundles, bindlin.ComposeBundle),
				})
			},
		)
	}
}

// Show aggregates runs once.
func Show(ctx context.Context, store kdb.MetadataInterface, runs []string, contextType string, partial bool) (apilin.Lineage, error) {
	contexts, err := lineage.ResolveContexts(ctx, store, runs, contextType)
	if err != nil {
		return apilin.Lineage{}, err
	}

	if partial {
		return bindlin.ComposeSettled(lineage.AggregateRunsSettled(ctx, store, runs, contexts)), nil
	}

	bundles, err := lineage.AggregateRuns(ctx, store, runs, contexts)
	if err != nil {
		return apilin.Lineage{}, err
	}
	return apilin.Lineage{Runs: utils.Map(bundles, bindlin.ComposeBundle)}, nil
}

// Watch aggregates runs for each interval, and passes the latest results to emit.
//
// An aggregation still in flight at the next tick is superseded, and its result is discarded.
// Failed aggregations are logged, and watching continues.
//
// It returns nil when ctx is done, or the error from emit.
func Watch(
	ctx context.Context,
	logger *log.Logger,
	session *lineage.Session,
	runs []string,
	contextType string,
	interval time.Duration,
	emit func([]domain.RunRelationalBundle) error,
) error {
	wctx, cancel := context.WithCancel(ctx)
	wg := sync.WaitGroup{}
	defer wg.Wait()
	defer cancel()
	defer session.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errs := make(chan error, 1)
	for {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Refresh(wctx, runs, contextType, func(bundles []domain.RunRelationalBundle, err error) {
				if wctx.Err() != nil {
					return
				}
				if err != nil {
					logger.Printf("failed to aggregate runs: %s", err)
					return
				}
				if err := emit(bundles); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			})
		}()

		select {
		case <-wctx.Done():
			return nil
		case err := <-errs:
			return err
		case <-ticker.C:
		}
	}
}
