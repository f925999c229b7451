// Package errors annotates errors with where they are created or passed.
//
//	if err != nil {
//		return xe.Wrap(err)
//	}
//
// Messages of annotated errors look like
//
//	@ pkg.Func "/path/to/file.go" l42 <- cause
//
// Replace "<-" with new lines to read them as a stack.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrWithCaller is an error annotated with its caller.
type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Func() string {
	return e.funcname
}

func (e *ErrWithCaller) Error() string {
	loc := fmt.Sprintf(`@ %s "%s" l%d`, e.funcname, e.file, e.line)
	if e.note != "" {
		loc += " (" + e.note + ")"
	}
	return loc + " <- " + e.err.Error()
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// New creates a new error annotated with the caller.
func New(text string) error {
	return annotate(errors.New(text), "", 1)
}

// Wrap annotates err with the caller.
//
// nil is returned as it is.
func Wrap(err error) error {
	return annotate(err, "", 1)
}

// WrapAsOuter annotates err with a caller depth frames above.
//
// WrapAsOuter(err, 0) is same as Wrap(err). Helpers use depth 1 to point their callers.
func WrapAsOuter(err error, depth int) error {
	return annotate(err, "", depth+1)
}

// WrapWithNote annotates err with the caller and a note.
func WrapWithNote(note string, err error) error {
	return annotate(err, note, 1)
}

func annotate(err error, note string, depth int) error {
	if err == nil {
		return nil
	}

	e := &ErrWithCaller{funcname: "(unknown func)", file: "?", line: -1, note: note, err: err}
	// frame 0 is annotate itself.
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return e
	}
	e.file, e.line = file, line
	if fn := runtime.FuncForPC(pc); fn != nil {
		e.funcname = fn.Name()
	}
	return e
}
