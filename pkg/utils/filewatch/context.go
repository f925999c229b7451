package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext returns a context canceled when one of the paths is modified
// (written, created, removed, renamed or its mode is changed).
//
// Directories can be watched. Then, modifications of files in them are reported.
// context.Cause of the returned context tells which file is modified.
//
// # Returns
//
// - context.Context
//
// - func(): stops watching and cancels the context.
//
// - error: when it cannot start watching. The context and the func are nil then.
func UntilModifyContext(ctx context.Context, paths ...string) (context.Context, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()
		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching files is broken: %w", err))
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%s is modified (%s)", ev.Name, ev.Op))
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
