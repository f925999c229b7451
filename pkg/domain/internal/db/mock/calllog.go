package mocks

import "sync"

type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}

// Recorder appends arguments to CallLog under lock.
//
// Mocks of interfaces called from many goroutines embed this.
type Recorder struct {
	mu sync.Mutex
}

// Record appends args to log.
func Record[T any](r *Recorder, log *CallLog[T], args T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*log = append(*log, args)
}
