package paging

import (
	"context"
	"errors"
	"fmt"

	"github.com/opst/pipeline-lineage/pkg/domain"
)

var (
	// there is no next page known.
	ErrNoNextPage = errors.New("no next page")

	// the page has not been visited.
	ErrUnknownPage = errors.New("unknown page")
)

// Fetcher queries a page.
type Fetcher[T any] func(ctx context.Context, query domain.PageQuery) (domain.Page[T], error)

// Cursor tracks a position in a paged listing.
//
// It remembers tokens of pages visited, so going back to them does not need queries.
// Page 1 is always queried without token.
//
// Cursor is not safe for concurrent use.
type Cursor[T any] struct {
	fetch Fetcher[T]

	pageSize int
	page     int
	token    string

	// tokenByPage[n] is the token to query n-th page. Page 1 is not recorded.
	tokenByPage map[int]string

	fetched   bool
	lastQuery domain.PageQuery
	last      domain.Page[T]
}

// New creates a Cursor pointing page 1.
func New[T any](fetch Fetcher[T], pageSize int) *Cursor[T] {
	return &Cursor[T]{
		fetch:       fetch,
		pageSize:    pageSize,
		page:        1,
		tokenByPage: map[int]string{},
	}
}

// PageToken returns the active page token. It is empty for page 1.
func (c *Cursor[T]) PageToken() string {
	return c.token
}

func (c *Cursor[T]) PageSize() int {
	return c.pageSize
}

// Page returns the current page number, starting from 1.
func (c *Cursor[T]) Page() int {
	return c.page
}

func (c *Cursor[T]) query() domain.PageQuery {
	return domain.PageQuery{Token: c.token, Size: c.pageSize}
}

// Fetch returns items of the current page.
//
// The query is issued only when the page token or the page size is changed after the last query.
// Otherwise, the last result is returned.
func (c *Cursor[T]) Fetch(ctx context.Context) (domain.Page[T], error) {
	q := c.query()
	if c.fetched && c.lastQuery == q {
		return c.last, nil
	}

	p, err := c.fetch(ctx, q)
	if err != nil {
		return domain.Page[T]{}, err
	}
	c.fetched = true
	c.lastQuery = q
	c.last = p
	return p, nil
}

// HasNextPage tells the last response has the token for the next page.
func (c *Cursor[T]) HasNextPage() bool {
	return c.fetched && c.lastQuery == c.query() && c.last.NextToken != ""
}

// GoToNextPage moves the cursor to the next page,
// with the next page token in the most recent response.
//
// Returns
//
// - error: ErrNoNextPage when the current page has not been fetched, or it is the last page.
func (c *Cursor[T]) GoToNextPage() error {
	if !c.HasNextPage() {
		return ErrNoNextPage
	}
	next := c.page + 1
	c.tokenByPage[next] = c.last.NextToken
	c.token = c.last.NextToken
	c.page = next
	return nil
}

// GoToPreviousPage moves the cursor to a page visited before.
//
// Moving to page 1 (or less) clears the active token.
//
// Returns
//
// - error: ErrUnknownPage when the token for the page is not known.
func (c *Cursor[T]) GoToPreviousPage(page int) error {
	if page <= 1 {
		c.token = ""
		c.page = 1
		return nil
	}
	token, ok := c.tokenByPage[page]
	if !ok {
		return fmt.Errorf("%w: page %d", ErrUnknownPage, page)
	}
	c.token = token
	c.page = page
	return nil
}

// SetPageSize changes the page size, and resets the cursor to page 1.
//
// Tokens recorded are forgotten, since they are issued for the previous page size.
func (c *Cursor[T]) SetPageSize(size int) {
	c.pageSize = size
	c.page = 1
	c.token = ""
	c.tokenByPage = map[int]string{}
}
