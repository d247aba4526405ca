package replica

import "time"

// SetReopenDelay shortens the feed reconnect backoff in tests.
func SetReopenDelay(e *Engine, lo, hi time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reopenMin, e.reopenMax = lo, hi
}
