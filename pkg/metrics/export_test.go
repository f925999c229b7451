package metrics

import "time"

// SetClock replaces the clock of m.
func SetClock(m *StoreMetrics, now func() time.Time) {
	m.now = now
}
