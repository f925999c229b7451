package executions

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/pipeline-lineage/cmd/lineage/subcommands/common"
	bindmeta "github.com/opst/pipeline-lineage/pkg/api-types-binding/metadata"
	apimeta "github.com/opst/pipeline-lineage/pkg/api/types/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/paging"
	"github.com/opst/pipeline-lineage/pkg/utils"
	"github.com/youta-t/flarc"
)

type Flags struct {
	PageSize int  `flag:"page-size" help:"the number of executions in a page"`
	Page     int  `flag:"page" alias:"p" help:"page number to be shown, from 1"`
	All      bool `flag:"all" help:"show all executions. --page is ignored"`
}

// Output is the result of the subcommand.
type Output struct {
	Page       int                 `json:"page"`
	HasNext    bool                `json:"hasNext"`
	Executions []apimeta.Execution `json:"executions"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List Executions page by page.",
		Flags{PageSize: kdb.DefaultPageSize, Page: 1},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
List Executions recorded in the metadata store, ordered by id.

To show the 3rd page,

    {{ .Command }} --page 3

To show all,

    {{ .Command }} --all
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
		if flags.PageSize <= 0 || kdb.MaxPageSize < flags.PageSize {
			return fmt.Errorf("%w: --page-size should be in 1 to %d", flarc.ErrUsage, kdb.MaxPageSize)
		}
		if !flags.All && flags.Page <= 0 {
			return fmt.Errorf("%w: --page should be positive", flarc.ErrUsage)
		}

		cursor := paging.New[domain.Execution](store.FindExecutions, flags.PageSize)
		if flags.All {
			executions, err := FetchAll(ctx, cursor)
			if err != nil {
				return err
			}
			return common.Print(cl.Stdout(), utils.Map(executions, bindmeta.ComposeExecution))
		}

		page, err := Seek(ctx, cursor, flags.Page)
		if err != nil {
			return err
		}
		return common.Print(cl.Stdout(), Output{
			Page:       cursor.Page(),
			HasNext:    cursor.HasNextPage(),
			Executions: utils.Map(page.Items, bindmeta.ComposeExecution),
		})
	}
}

// Seek moves cursor to the page, following next page tokens.
//
// Returns
//
// - domain.Page[domain.Execution]: the page.
//
// - error: paging.ErrNoNextPage when there are less pages than page.
func Seek(ctx context.Context, cursor *paging.Cursor[domain.Execution], page int) (domain.Page[domain.Execution], error) {
	for {
		p, err := cursor.Fetch(ctx)
		if err != nil {
			return domain.Page[domain.Execution]{}, err
		}
		if page <= cursor.Page() {
			return p, nil
		}
		if err := cursor.GoToNextPage(); err != nil {
			return domain.Page[domain.Execution]{}, fmt.Errorf(
				"%w: there are only %d pages", err, cursor.Page(),
			)
		}
	}
}

// FetchAll walks all pages from the current one.
func FetchAll(ctx context.Context, cursor *paging.Cursor[domain.Execution]) ([]domain.Execution, error) {
	ret := []domain.Execution{}
	for {
		p, err := cursor.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, p.Items...)
		if !cursor.HasNextPage() {
			return ret, nil
		}
		if err := cursor.GoToNextPage(); err != nil {
			return nil, err
		}
	}
}
