package errors_test

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	xe "github.com/opst/pipeline-lineage/pkg/errors"
)

var errRoot = errors.New("root")

func wrapHere(err error) error {
	return xe.Wrap(err)
}

func helper(err error) error {
	return xe.WrapAsOuter(err, 1)
}

func callHelper(err error) error {
	return helper(err)
}

func TestWrap(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)

	t.Run("it knows where it is created", func(t *testing.T) {
		err := wrapHere(errRoot)

		var ewc *xe.ErrWithCaller
		if !errors.As(err, &ewc) {
			t.Fatalf("not annotated: %v", err)
		}
		if !strings.HasSuffix(ewc.Func(), "wrapHere") {
			t.Errorf("unexpected func: %s", ewc.Func())
		}
		if ewc.File() != thisFile {
			t.Errorf("unexpected file: %s (expected: %s)", ewc.File(), thisFile)
		}
		if !strings.Contains(err.Error(), "<- root") {
			t.Errorf("cause is not in message: %s", err)
		}
	})

	t.Run("WrapAsOuter points the caller of the helper", func(t *testing.T) {
		var ewc *xe.ErrWithCaller
		if !errors.As(callHelper(errRoot), &ewc) {
			t.Fatal("not annotated")
		}
		if !strings.HasSuffix(ewc.Func(), "callHelper") {
			t.Errorf("unexpected func: %s", ewc.Func())
		}
	})

	t.Run("it supports errors.Is", func(t *testing.T) {
		err := xe.WrapWithNote("note", fmt.Errorf("wrapped: %w", errRoot))
		if !errors.Is(err, errRoot) {
			t.Errorf("cannot unwrap: %v", err)
		}
		if !strings.Contains(err.Error(), "(note)") {
			t.Errorf("note is not in message: %s", err)
		}
	})

	t.Run("nil is kept nil", func(t *testing.T) {
		if err := xe.Wrap(nil); err != nil {
			t.Errorf("unexpected: %v", err)
		}
	})

	t.Run("New creates an annotated error", func(t *testing.T) {
		err := xe.New("new error")
		if !strings.Contains(err.Error(), "TestWrap") || !strings.HasSuffix(err.Error(), "<- new error") {
			t.Errorf("unexpected message: %s", err)
		}
	})
}
