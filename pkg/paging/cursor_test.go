package paging_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/opst/pipeline-lineage/pkg/domain"
	"github.com/opst/pipeline-lineage/pkg/paging"
	"github.com/opst/pipeline-lineage/pkg/utils/cmp"
)

// fakeListing serves integers 1..total. Tokens are "<size>:<offset>".
type fakeListing struct {
	total   int
	queries []domain.PageQuery
}

func (f *fakeListing) fetch(ctx context.Context, q domain.PageQuery) (domain.Page[int], error) {
	f.queries = append(f.queries, q)

	offset := 0
	if q.Token != "" {
		var size int
		if _, err := fmt.Sscanf(q.Token, "%d:%d", &size, &offset); err != nil {
			return domain.Page[int]{}, err
		}
		if size != q.Size {
			return domain.Page[int]{}, errors.New("token for other page size")
		}
	}

	items := []int{}
	for i := offset + 1; i <= f.total && len(items) < q.Size; i++ {
		items = append(items, i)
	}
	next := ""
	if offset+q.Size < f.total {
		next = strconv.Itoa(q.Size) + ":" + strconv.Itoa(offset+q.Size)
	}
	return domain.Page[int]{Items: items, NextToken: next}, nil
}

func TestCursor(t *testing.T) {
	ctx := context.Background()

	t.Run("it walks pages forward and backward", func(t *testing.T) {
		listing := &fakeListing{total: 7}
		testee := paging.New(listing.fetch, 3)

		if testee.Page() != 1 || testee.PageToken() != "" || testee.PageSize() != 3 {
			t.Fatalf("unexpected initial state: page=%d token=%q size=%d", testee.Page(), testee.PageToken(), testee.PageSize())
		}

		p1, err := testee.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq(p1.Items, []int{1, 2, 3}) {
			t.Errorf("unexpected page 1: %v", p1.Items)
		}

		if err := testee.GoToNextPage(); err != nil {
			t.Fatal(err)
		}
		t1 := testee.PageToken()
		p2, err := testee.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if testee.Page() != 2 || !cmp.SliceEq(p2.Items, []int{4, 5, 6}) {
			t.Errorf("unexpected page 2: %d, %v", testee.Page(), p2.Items)
		}

		if err := testee.GoToNextPage(); err != nil {
			t.Fatal(err)
		}
		t2 := testee.PageToken()
		p3, err := testee.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if testee.Page() != 3 || !cmp.SliceEq(p3.Items, []int{7}) {
			t.Errorf("unexpected page 3: %d, %v", testee.Page(), p3.Items)
		}
		if t1 == "" || t2 == "" || t1 == t2 {
			t.Fatalf("unexpected tokens: %q, %q", t1, t2)
		}

		if err := testee.GoToNextPage(); !errors.Is(err, paging.ErrNoNextPage) {
			t.Errorf("unexpected error at the last page: %v", err)
		}

		queries := len(listing.queries)
		if err := testee.GoToPreviousPage(2); err != nil {
			t.Fatal(err)
		}
		if testee.PageToken() != t1 || testee.Page() != 2 {
			t.Errorf("unexpected state: page=%d token=%q", testee.Page(), testee.PageToken())
		}
		if len(listing.queries) != queries {
			t.Errorf("going back issues queries")
		}

		if err := testee.GoToPreviousPage(1); err != nil {
			t.Fatal(err)
		}
		if testee.PageToken() != "" || testee.Page() != 1 {
			t.Errorf("unexpected state: page=%d token=%q", testee.Page(), testee.PageToken())
		}
		if len(listing.queries) != queries {
			t.Errorf("going back issues queries")
		}
	})

	t.Run("it does not query again while token and size are unchanged", func(t *testing.T) {
		listing := &fakeListing{total: 7}
		testee := paging.New(listing.fetch, 3)

		for i := 0; i < 3; i++ {
			if _, err := testee.Fetch(ctx); err != nil {
				t.Fatal(err)
			}
		}
		if len(listing.queries) != 1 {
			t.Errorf("unexpected queries: %+v", listing.queries)
		}

		if err := testee.GoToNextPage(); err != nil {
			t.Fatal(err)
		}
		if _, err := testee.Fetch(ctx); err != nil {
			t.Fatal(err)
		}
		if len(listing.queries) != 2 {
			t.Errorf("unexpected queries: %+v", listing.queries)
		}
	})

	t.Run("it cannot go to next page before fetching", func(t *testing.T) {
		listing := &fakeListing{total: 7}
		testee := paging.New(listing.fetch, 3)
		if err := testee.GoToNextPage(); !errors.Is(err, paging.ErrNoNextPage) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it cannot go to pages not visited", func(t *testing.T) {
		listing := &fakeListing{total: 7}
		testee := paging.New(listing.fetch, 3)
		if err := testee.GoToPreviousPage(3); !errors.Is(err, paging.ErrUnknownPage) {
			t.Errorf("unexpected error: %v", err)
		}
		if testee.Page() != 1 {
			t.Errorf("page is moved: %d", testee.Page())
		}
	})

	t.Run("changing page size resets to page 1 and forgets tokens for the old size", func(t *testing.T) {
		listing := &fakeListing{total: 7}
		testee := paging.New(listing.fetch, 3)

		if _, err := testee.Fetch(ctx); err != nil {
			t.Fatal(err)
		}
		if err := testee.GoToNextPage(); err != nil {
			t.Fatal(err)
		}
		if _, err := testee.Fetch(ctx); err != nil {
			t.Fatal(err)
		}

		testee.SetPageSize(5)
		if testee.Page() != 1 || testee.PageToken() != "" || testee.PageSize() != 5 {
			t.Fatalf("unexpected state: page=%d token=%q size=%d", testee.Page(), testee.PageToken(), testee.PageSize())
		}
		if err := testee.GoToPreviousPage(2); !errors.Is(err, paging.ErrUnknownPage) {
			t.Errorf("token for old page size is reused: %v", err)
		}

		p1, err := testee.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq(p1.Items, []int{1, 2, 3, 4, 5}) {
			t.Errorf("unexpected page: %v", p1.Items)
		}
		last := listing.queries[len(listing.queries)-1]
		if last != (domain.PageQuery{Token: "", Size: 5}) {
			t.Errorf("unexpected query: %+v", last)
		}

		if err := testee.GoToNextPage(); err != nil {
			t.Fatal(err)
		}
		p2, err := testee.Fetch(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.SliceEq(p2.Items, []int{6, 7}) {
			t.Errorf("unexpected page: %v", p2.Items)
		}
	})
}
