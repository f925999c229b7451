package context

import (
	"context"
	"testing"
	"time"
)

// WithTest returns a context with a deadline before the test's one.
//
// The margin is left for cleanups. The context is canceled when the test ends.
func WithTest(ctx context.Context, t *testing.T) context.Context {
	t.Helper()
	if deadline, ok := t.Deadline(); ok {
		dctx, cancel := context.WithDeadline(ctx, deadline.Add(-time.Second))
		t.Cleanup(cancel)
		return dctx
	}
	cctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	return cctx
}
