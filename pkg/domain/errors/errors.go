package errors

import (
	"errors"
	"fmt"
)

var (
	// requested record is not found.
	ErrMissing = errors.New("missing")

	// requested record is found more than expected.
	ErrTooMuch = errors.New("too much")

	// record read from the metadata store is not well formed.
	ErrInvalidRecord = errors.New("invalid record")
)

// requested data is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return ErrMissing
}

// requested data is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
	Actual   int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s %d times (expected: %d)",
		t.Identity, t.Table, t.Actual, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return ErrTooMuch
}

// InvalidRecord tells a record from the metadata store cannot be accepted.
type InvalidRecord struct {
	Kind   string
	Id     int64
	Reason string
}

var _ error = InvalidRecord{}

func (i InvalidRecord) Error() string {
	return fmt.Sprintf("%s (id: %d) is invalid: %s", i.Kind, i.Id, i.Reason)
}

func (i InvalidRecord) Unwrap() error {
	return ErrInvalidRecord
}
