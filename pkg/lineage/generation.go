package lineage

import (
	"context"
	"sync"

	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
)

// Generations tracks which request is the latest one.
//
// Each request takes a Ticket by Begin.
// Beginning a new request supersedes the previous one:
// the context of the previous Ticket is canceled, and its Commit becomes no-op.
type Generations struct {
	mu      sync.Mutex
	current uint64
	cancel  context.CancelFunc
}

// Ticket is a generation marker of a request.
type Ticket struct {
	gens   *Generations
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Begin starts a new generation.
//
// The context of the Ticket is derived from ctx,
// and is canceled when the Ticket is superseded or released.
func (g *Generations) Begin(ctx context.Context) *Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	g.current += 1
	tctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	return &Ticket{gens: g, gen: g.current, ctx: tctx, cancel: cancel}
}

// Close supersedes all Tickets issued.
func (g *Generations) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.current += 1
}

func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Current tells the Ticket is not superseded yet.
func (t *Ticket) Current() bool {
	t.gens.mu.Lock()
	defer t.gens.mu.Unlock()
	return t.gens.current == t.gen
}

// Commit calls apply only when the Ticket is current.
//
// While apply is running, no other Tickets can begin or commit.
//
// Returns
//
// - bool: true if apply is called.
func (t *Ticket) Commit(apply func()) bool {
	t.gens.mu.Lock()
	defer t.gens.mu.Unlock()
	if t.gens.current != t.gen {
		return false
	}
	apply()
	return true
}

// Release cancels the context of the Ticket.
func (t *Ticket) Release() {
	t.cancel()
}

// Session is a scope of aggregations for a consumer, like a comparison view.
//
// Results of aggregations superseded by newer ones are discarded.
type Session struct {
	store kdb.MetadataInterface
	gens  Generations
}

func NewSession(store kdb.MetadataInterface) *Session {
	return &Session{store: store}
}

// Aggregate runs AggregateRuns as a new generation, and applies the outcome unless it is superseded.
//
// Calling Aggregate supersedes aggregations in flight;
// they are canceled, and their apply are not called.
//
// Returns
//
// - bool: true if apply is called.
func (s *Session) Aggregate(
	ctx context.Context, runs []string, contexts []domain.Context,
	apply func([]domain.RunRelationalBundle, error),
) bool {
	t := s.gens.Begin(ctx)
	defer t.Release()

	bundles, err := AggregateRuns(t.Context(), s.store, runs, contexts)
	return t.Commit(func() { apply(bundles, err) })
}

// Refresh is Aggregate with contexts of runs resolved in the same generation.
//
// The generation begins before contexts are resolved,
// so a slow resolution cannot outlive a newer Refresh.
func (s *Session) Refresh(
	ctx context.Context, runs []string, contextType string,
	apply func([]domain.RunRelationalBundle, error),
) bool {
	t := s.gens.Begin(ctx)
	defer t.Release()

	contexts, err := ResolveContexts(t.Context(), s.store, runs, contextType)
	if err != nil {
		return t.Commit(func() { apply(nil, err) })
	}
	bundles, err := AggregateRuns(t.Context(), s.store, runs, contexts)
	return t.Commit(func() { apply(bundles, err) })
}

// Close discards aggregations in flight.
func (s *Session) Close() {
	s.gens.Close()
}
