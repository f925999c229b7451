package try

// Fataler is something reporting fatal errors, like *testing.T and *log.Logger.
type Fataler interface {
	Fatal(...any)
}

type helper interface {
	Helper()
}

// Either is a pair of a value and an error.
//
// It is "ok" when the error is nil.
type Either[T any] interface {
	// Get returns the value and the error.
	Get() (T, error)

	// OrFatal returns the value if ok. Otherwise, it calls ftl.Fatal with the error.
	OrFatal(ftl Fataler) T

	// OrDefault returns the value if ok. Otherwise, it returns d.
	OrDefault(d T) T
}

// To wraps results of a function call.
//
//	conf := try.To(lineaged.Load(path)).OrFatal(logger)
func To[T any](value T, err error) Either[T] {
	return either[T]{value: value, err: err}
}

// Map converts the value of ok Either.
func Map[T any, R any](e Either[T], mapper func(T) R) Either[R] {
	v, err := e.Get()
	if err != nil {
		return either[R]{err: err}
	}
	return either[R]{value: mapper(v)}
}

type either[T any] struct {
	value T
	err   error
}

func (e either[T]) Get() (T, error) {
	if e.err != nil {
		return *new(T), e.err
	}
	return e.value, nil
}

func (e either[T]) OrFatal(ftl Fataler) T {
	if e.err != nil {
		if h, ok := ftl.(helper); ok {
			h.Helper()
		}
		ftl.Fatal(e.err)
	}
	return e.value
}

func (e either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}
