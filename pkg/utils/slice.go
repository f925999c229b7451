// Package utils has generic helpers for slices shared by lineage and its API bindings.
package utils

// Map returns mapper(v) for each v in sli, keeping the order.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// MapUntilError is Map with a fallible mapper. It stops at the first error.
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// IndexBy makes an index of records by their ids.
//
// When ids collide, the last record wins.
func IndexBy[T any, K comparable](records []T, id func(T) K) map[K]T {
	index := make(map[K]T, len(records))
	for _, r := range records {
		index[id(r)] = r
	}
	return index
}
