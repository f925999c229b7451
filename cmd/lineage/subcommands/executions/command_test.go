package executions_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/opst/pipeline-lineage/cmd/lineage/internal/commandline"
	"github.com/opst/pipeline-lineage/cmd/lineage/subcommands/executions"
	apimeta "github.com/opst/pipeline-lineage/pkg/api/types/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/domain/metadata/db/mock"
	"github.com/opst/pipeline-lineage/pkg/paging"
	"github.com/opst/pipeline-lineage/pkg/utils/cmp"
	"github.com/youta-t/flarc"
)

// pagedStore serves Executions 101, 102, ... 105.
func pagedStore() *mock.MetadataInterface {
	all := []domain.Execution{}
	for id := int64(101); id <= 105; id++ {
		all = append(all, domain.Execution{Id: id, TypeId: 20, State: domain.ExecutionComplete})
	}

	store := mock.NewMetadataInterface()
	store.Impl.FindExecutions = func(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
		size := kdb.NormalizePageSize(query.Size)
		after, err := kdb.DecodePageToken(query.Token, size)
		if err != nil {
			return domain.Page[domain.Execution]{}, err
		}
		page := domain.Page[domain.Execution]{Items: []domain.Execution{}}
		for _, ex := range all {
			if ex.Id <= after {
				continue
			}
			if len(page.Items) == size {
				page.NextToken = kdb.EncodePageToken(page.Items[size-1].Id, size)
				break
			}
			page.Items = append(page.Items, ex)
		}
		return page, nil
	}
	return store
}

func TestTask(t *testing.T) {
	type when struct {
		flags executions.Flags
	}
	type then struct {
		err error

		// ids of executions in output.
		ids     []int64
		page    int
		hasNext bool
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			store := pagedStore()
			stdout := new(strings.Builder)

			err := executions.Task()(
				context.Background(),
				log.New(io.Discard, "", 0),
				store,
				commandline.MockCommandline[executions.Flags]{
					Fullname_: "lineage executions",
					Stdout_:   stdout,
					Stderr_:   io.Discard,
					Flags_:    when.flags,
					Args_:     map[string][]string{},
				},
				[]any{},
			)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Errorf("unexpected error: %v (expected: %v)", err, then.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			var got []apimeta.Execution
			if when.flags.All {
				if err := json.Unmarshal([]byte(stdout.String()), &got); err != nil {
					t.Fatal(err)
				}
			} else {
				out := executions.Output{}
				if err := json.Unmarshal([]byte(stdout.String()), &out); err != nil {
					t.Fatal(err)
				}
				if out.Page != then.page || out.HasNext != then.hasNext {
					t.Errorf(
						"not match:\n- actual   : page=%d, hasNext=%v\n- expected : page=%d, hasNext=%v",
						out.Page, out.HasNext, then.page, then.hasNext,
					)
				}
				got = out.Executions
			}

			ids := make([]int64, 0, len(got))
			for _, ex := range got {
				ids = append(ids, ex.Id)
			}
			if !cmp.SliceEq(ids, then.ids) {
				t.Errorf("not match:\n- actual   : %+v\n- expected : %+v", ids, then.ids)
			}
		}
	}

	t.Run("when the first page is requested, it shows the page", theory(
		when{flags: executions.Flags{PageSize: 2, Page: 1}},
		then{ids: []int64{101, 102}, page: 1, hasNext: true},
	))
	t.Run("when a middle page is requested, it follows tokens", theory(
		when{flags: executions.Flags{PageSize: 2, Page: 2}},
		then{ids: []int64{103, 104}, page: 2, hasNext: true},
	))
	t.Run("when the last page is requested, it has no next", theory(
		when{flags: executions.Flags{PageSize: 2, Page: 3}},
		then{ids: []int64{105}, page: 3, hasNext: false},
	))
	t.Run("when a page over the last is requested, it fails", theory(
		when{flags: executions.Flags{PageSize: 2, Page: 4}},
		then{err: paging.ErrNoNextPage},
	))
	t.Run("when --all is passed, it shows all", theory(
		when{flags: executions.Flags{PageSize: 2, All: true}},
		then{ids: []int64{101, 102, 103, 104, 105}},
	))
	t.Run("when page size is zero, it is usage error", theory(
		when{flags: executions.Flags{PageSize: 0, Page: 1}},
		then{err: flarc.ErrUsage},
	))
	t.Run("when page is zero, it is usage error", theory(
		when{flags: executions.Flags{PageSize: 2, Page: 0}},
		then{err: flarc.ErrUsage},
	))
}
